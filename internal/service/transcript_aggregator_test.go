package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-transcript-api/internal/models"
)

func passWhen(level models.GradingLevel, conditions ...models.Condition) models.PassingCriteria {
	group := []models.ConditionGroup{{Conditions: conditions}}
	set := &models.CriteriaSet{}
	switch level {
	case models.GradingLevelBlock:
		set.BlockCriteriaGroups = group
	case models.GradingLevelSubject:
		set.SubjectCriteriaGroups = group
	default:
		set.TestCriteriaGroups = group
	}
	return models.PassingCriteria{PassCriteria: set}
}

func sampleStructure() []models.Block {
	avg50 := averageCondition(models.ComparisonGTE, 50)
	return []models.Block{{
		ID:              "b1",
		PassingCriteria: passWhen(models.GradingLevelBlock, averageCondition(models.ComparisonGTE, 70)),
		Subjects: []models.Subject{
			{
				ID:              "math",
				Coefficient:     2,
				PassingCriteria: passWhen(models.GradingLevelSubject, avg50),
				Tests: []models.Test{
					{ID: "math-exam", Weight: 0.6, PassingCriteria: passWhen(models.GradingLevelTest, avg50)},
					{ID: "math-quiz", Weight: 0.4, PassingCriteria: passWhen(models.GradingLevelTest, avg50)},
				},
			},
			{
				ID:              "lit",
				Coefficient:     3,
				PassingCriteria: passWhen(models.GradingLevelSubject, avg50),
				Tests: []models.Test{
					{ID: "lit-essay", Weight: 1, PassingCriteria: passWhen(models.GradingLevelTest, avg50)},
				},
			},
		},
	}}
}

func sampleResults() []models.StudentTestResult {
	return []models.StudentTestResult{
		{TestID: "math-exam", AverageMark: 80, Marks: models.NotationMarks{{NotationText: "written", Mark: 80}}},
		{TestID: "math-quiz", AverageMark: 50, Marks: models.NotationMarks{{NotationText: "written", Mark: 45}, {NotationText: "oral", Mark: 55}}},
		{TestID: "lit-essay", AverageMark: 75, Marks: models.NotationMarks{{NotationText: "written", Mark: 75}}},
	}
}

func TestTranscriptCalculatorWeightedRollup(t *testing.T) {
	calc := newTranscriptCalculator(sampleResults(), zap.NewNop())
	blocks, overall := calc.calculate(sampleStructure())

	require.Len(t, blocks, 1)
	block := blocks[0]
	require.Len(t, block.SubjectResults, 2)

	math := block.SubjectResults[0]
	assert.Equal(t, "math", math.Subject)
	assert.Equal(t, 136.0, math.SubjectTotalMark)
	assert.Equal(t, models.ResultPass, math.SubjectResult)
	require.Len(t, math.TestResults, 2)
	assert.Equal(t, models.TestResult{Test: "math-exam", TestResult: models.ResultPass, TestTotalMark: 80, TestWeightedMark: 48}, math.TestResults[0])
	assert.Equal(t, models.TestResult{Test: "math-quiz", TestResult: models.ResultPass, TestTotalMark: 50, TestWeightedMark: 20}, math.TestResults[1])

	lit := block.SubjectResults[1]
	assert.Equal(t, 225.0, lit.SubjectTotalMark)

	assert.Equal(t, 72.2, block.BlockTotalMark)
	assert.Equal(t, models.ResultPass, block.BlockResult)
	assert.Equal(t, models.ResultPass, overall)
}

func TestTranscriptCalculatorSubjectTotalWithUnitCoefficient(t *testing.T) {
	blocks := sampleStructure()
	blocks[0].Subjects[0].Coefficient = 1
	results, _ := newTranscriptCalculator(sampleResults(), nil).calculate(blocks)
	assert.Equal(t, 68.0, results[0].SubjectResults[0].SubjectTotalMark)
}

func TestTranscriptCalculatorMissingResultScoresZero(t *testing.T) {
	results := sampleResults()[:1]
	blocks := sampleStructure()
	core, logs := observer.New(zap.WarnLevel)
	calc := newTranscriptCalculator(results, zap.New(core))
	var deviations int
	calc.weightDeviation = func(string, float64) { deviations++ }

	out, overall := calc.calculate(blocks)
	math := out[0].SubjectResults[0]
	quiz := math.TestResults[1]
	assert.Equal(t, 0.0, quiz.TestTotalMark)
	assert.Equal(t, models.ResultFail, quiz.TestResult)
	assert.Equal(t, 96.0, math.SubjectTotalMark)
	assert.Equal(t, models.ResultFail, overall)
	assert.Zero(t, deviations, "missing results still count towards the weight sum")
	assert.Zero(t, logs.Len())
}

func TestTranscriptCalculatorWarnsOnWeightDeviation(t *testing.T) {
	blocks := sampleStructure()
	blocks[0].Subjects[1].Tests[0].Weight = 0.9
	core, logs := observer.New(zap.WarnLevel)
	calc := newTranscriptCalculator(sampleResults(), zap.New(core))
	var deviated []string
	calc.weightDeviation = func(subjectID string, _ float64) { deviated = append(deviated, subjectID) }

	calc.calculate(blocks)
	assert.Equal(t, []string{"lit"}, deviated)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "test weights do not sum to 1", logs.All()[0].Message)
}

func TestTranscriptCalculatorBlockCriteriaSeeSubjectScores(t *testing.T) {
	blocks := sampleStructure()
	refMath := markCondition("oral", models.ComparisonGTE, 55)
	refMath.Subject = strPtr("math")
	blocks[0].PassingCriteria = passWhen(models.GradingLevelBlock, refMath)

	out, overall := newTranscriptCalculator(sampleResults(), nil).calculate(blocks)
	assert.Equal(t, models.ResultPass, out[0].BlockResult)
	assert.Equal(t, models.ResultPass, overall)

	refLit := markCondition("oral", models.ComparisonGTE, 0)
	refLit.Subject = strPtr("lit")
	blocks[0].PassingCriteria = passWhen(models.GradingLevelBlock, refLit)
	out, _ = newTranscriptCalculator(sampleResults(), nil).calculate(blocks)
	assert.Equal(t, models.ResultFail, out[0].BlockResult, "lit has no oral notation")
}

func TestTranscriptCalculatorSiblingSubjectReference(t *testing.T) {
	blocks := sampleStructure()
	ref := markCondition("written", models.ComparisonGTE, 80)
	ref.Subject = strPtr("math")
	blocks[0].Subjects[1].PassingCriteria = passWhen(models.GradingLevelSubject, ref)

	out, _ := newTranscriptCalculator(sampleResults(), nil).calculate(blocks)
	assert.Equal(t, models.ResultPass, out[0].SubjectResults[1].SubjectResult, "reads math written mark 80, not lit's 75")
}

func TestTranscriptCalculatorSingleFailingBlockFailsOverall(t *testing.T) {
	blocks := sampleStructure()
	blocks = append(blocks, models.Block{ID: "b2"})

	out, overall := newTranscriptCalculator(sampleResults(), nil).calculate(blocks)
	require.Len(t, out, 2)
	assert.Equal(t, models.ResultPass, out[0].BlockResult)
	assert.Equal(t, models.ResultFail, out[1].BlockResult)
	assert.Equal(t, 0.0, out[1].BlockTotalMark)
	assert.Equal(t, models.ResultFail, overall)
}

func TestTranscriptCalculatorNoBlocksPasses(t *testing.T) {
	out, overall := newTranscriptCalculator(nil, nil).calculate(nil)
	assert.Empty(t, out)
	assert.Equal(t, models.ResultPass, overall)
}

func TestTranscriptCalculatorRoundsOnlyOutputs(t *testing.T) {
	blocks := []models.Block{{
		ID: "b1",
		Subjects: []models.Subject{{
			ID:          "s1",
			Coefficient: 3,
			Tests: []models.Test{
				{ID: "t1", Weight: 1.0 / 3},
				{ID: "t2", Weight: 1.0 / 3},
				{ID: "t3", Weight: 1.0 / 3},
			},
		}},
	}}
	results := []models.StudentTestResult{
		{TestID: "t1", AverageMark: 10},
		{TestID: "t2", AverageMark: 20},
		{TestID: "t3", AverageMark: 31},
	}
	out, _ := newTranscriptCalculator(results, nil).calculate(blocks)
	subject := out[0].SubjectResults[0]
	assert.Equal(t, 3.33, subject.TestResults[0].TestWeightedMark)
	assert.Equal(t, 61.0, subject.SubjectTotalMark, "rounding the subject score first would give 60.99")
	assert.Equal(t, 20.33, out[0].BlockTotalMark)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 60.99, round2(60.994))
	assert.Equal(t, 61.0, round2(60.996))
	assert.Equal(t, 0.0, round2(0))
}
