package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-transcript-api/internal/models"
)

func counterValue(t *testing.T, m *MetricsService, name string, label string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range family.GetMetric() {
			if label != "" {
				matched := false
				for _, pair := range metric.GetLabel() {
					if pair.GetValue() == label {
						matched = true
					}
				}
				if !matched {
					continue
				}
			}
			total += metric.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func TestMetricsServiceCalculationOutcomes(t *testing.T) {
	m := NewMetricsService()
	m.ObserveCalculation(models.ResultPass, time.Millisecond, nil)
	m.ObserveCalculation(models.ResultFail, time.Millisecond, nil)
	m.ObserveCalculation("", time.Millisecond, errors.New("db down"))
	m.RecordWeightDeviation()

	assert.Equal(t, 2.0, counterValue(t, m, "transcript_calculations_total", "success"))
	assert.Equal(t, 1.0, counterValue(t, m, "transcript_calculations_total", "failure"))
	assert.Equal(t, 1.0, counterValue(t, m, "transcript_overall_results_total", "PASS"))
	assert.Equal(t, 1.0, counterValue(t, m, "transcript_overall_results_total", "FAIL"))
	assert.Equal(t, 1.0, counterValue(t, m, "transcript_weight_sum_deviations_total", ""))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveCalculation(models.ResultPass, time.Millisecond, nil)
		m.RecordDeadLetter()
	})
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}
