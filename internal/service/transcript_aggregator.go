package service

import (
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-transcript-api/internal/models"
)

const weightSumTolerance = 0.01

// transcriptCalculator rolls one student's marks up the grading tree. It is
// built per run and must not be shared between runs.
type transcriptCalculator struct {
	lookup          *scoreLookup
	logger          *zap.Logger
	weightDeviation func(subjectID string, sum float64)
}

func newTranscriptCalculator(results []models.StudentTestResult, logger *zap.Logger) *transcriptCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &transcriptCalculator{
		lookup: newScoreLookup(results),
		logger: logger,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// calculate evaluates every block and the overall outcome.
func (c *transcriptCalculator) calculate(blocks []models.Block) (models.BlockResults, models.ResultStatus) {
	results := make(models.BlockResults, 0, len(blocks))
	overall := models.ResultPass
	for _, block := range blocks {
		result := c.aggregateBlock(block)
		if result.BlockResult != models.ResultPass {
			overall = models.ResultFail
		}
		results = append(results, result)
	}
	return results, overall
}

func (c *transcriptCalculator) aggregateBlock(block models.Block) models.BlockResult {
	var weightedSum, coefficientSum float64
	subjectResults := make([]models.SubjectResult, 0, len(block.Subjects))
	for _, subject := range block.Subjects {
		result, subjectScore := c.aggregateSubject(subject)
		weightedSum += subjectScore * subject.Coefficient
		coefficientSum += subject.Coefficient
		subjectResults = append(subjectResults, result)
	}

	blockScore := 0.0
	if coefficientSum > 0 {
		blockScore = weightedSum / coefficientSum
	}
	c.lookup.put(models.GradingLevelBlock, block.ID, scoreEntry{averageMark: blockScore})
	status := decide(block.PassingCriteria, models.GradingLevelBlock, evalScope{lookup: c.lookup, selfScore: blockScore})

	return models.BlockResult{
		Block:          block.ID,
		SubjectResults: subjectResults,
		BlockTotalMark: round2(blockScore),
		BlockResult:    status,
	}
}

// aggregateSubject returns the subject's result and its unweighted score.
func (c *transcriptCalculator) aggregateSubject(subject models.Subject) (models.SubjectResult, float64) {
	testResults, weightedSum, weightSum, marks := c.aggregateTests(subject.Tests)
	if math.Abs(weightSum-1) > weightSumTolerance {
		c.logger.Warn("test weights do not sum to 1",
			zap.String("subject_id", subject.ID),
			zap.Float64("weight_sum", weightSum),
		)
		if c.weightDeviation != nil {
			c.weightDeviation(subject.ID, weightSum)
		}
	}

	subjectScore := weightedSum
	c.lookup.put(models.GradingLevelSubject, subject.ID, scoreEntry{averageMark: subjectScore, marks: marks})
	status := decide(subject.PassingCriteria, models.GradingLevelSubject, evalScope{lookup: c.lookup, selfScore: subjectScore})

	return models.SubjectResult{
		Subject:          subject.ID,
		TestResults:      testResults,
		SubjectTotalMark: round2(subjectScore * subject.Coefficient),
		SubjectResult:    status,
	}, subjectScore
}

// aggregateTests scores every test of a subject. A test without a submitted
// result scores zero and still counts towards the weight sum. The returned
// marks are the union of the tests' notation marks, first notation wins.
func (c *transcriptCalculator) aggregateTests(tests []models.Test) ([]models.TestResult, float64, float64, []models.NotationMark) {
	var weightedSum, weightSum float64
	results := make([]models.TestResult, 0, len(tests))
	var marks []models.NotationMark
	seen := make(map[string]struct{})

	for _, test := range tests {
		entry, ok := c.lookup.get(models.GradingLevelTest, test.ID)
		if !ok {
			entry = scoreEntry{marks: []models.NotationMark{}}
			c.lookup.put(models.GradingLevelTest, test.ID, entry)
		}
		status := decide(test.PassingCriteria, models.GradingLevelTest, evalScope{
			lookup:    c.lookup,
			selfScore: entry.averageMark,
			selfMarks: entry.marks,
		})

		weighted := entry.averageMark * test.Weight
		weightedSum += weighted
		weightSum += test.Weight

		for _, m := range entry.marks {
			if _, dup := seen[m.NotationText]; dup {
				continue
			}
			seen[m.NotationText] = struct{}{}
			marks = append(marks, m)
		}

		results = append(results, models.TestResult{
			Test:             test.ID,
			TestResult:       status,
			TestTotalMark:    round2(entry.averageMark),
			TestWeightedMark: round2(weighted),
		})
	}
	return results, weightedSum, weightSum, marks
}
