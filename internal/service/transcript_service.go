package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-transcript-api/internal/dto"
	"github.com/noah-isme/sma-transcript-api/internal/models"
	appErrors "github.com/noah-isme/sma-transcript-api/pkg/errors"
	"github.com/noah-isme/sma-transcript-api/pkg/export"
)

type gradingStructureReader interface {
	ListActiveBlocks(ctx context.Context) ([]models.Block, error)
}

type studentResultReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentTestResult, error)
	ListStudentIDs(ctx context.Context) ([]string, error)
}

type transcriptStore interface {
	Upsert(ctx context.Context, doc *models.FinalTranscriptResult) error
	FindByStudent(ctx context.Context, studentID string) (*models.FinalTranscriptResult, error)
}

// TranscriptServiceConfig tunes caching and batch recalculation.
type TranscriptServiceConfig struct {
	CacheTTL         time.Duration
	BatchConcurrency int
}

// TranscriptExport is a rendered transcript file.
type TranscriptExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// TranscriptService evaluates and serves final transcripts.
type TranscriptService struct {
	structure   gradingStructureReader
	results     studentResultReader
	transcripts transcriptStore
	cache       *CacheService
	metrics     *MetricsService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         TranscriptServiceConfig
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(structure gradingStructureReader, results studentResultReader, transcripts transcriptStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg TranscriptServiceConfig) *TranscriptService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	return &TranscriptService{
		structure:   structure,
		results:     results,
		transcripts: transcripts,
		cache:       cache,
		metrics:     metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// CalculateFinalTranscript recomputes the whole transcript of a student and
// upserts it. Nothing is written when any fetch fails.
func (s *TranscriptService) CalculateFinalTranscript(ctx context.Context, studentID, initiatingUserID string) (*models.FinalTranscriptResult, error) {
	req := dto.CalculateTranscriptRequest{StudentID: studentID, InitiatedBy: initiatingUserID}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student and initiating user required")
	}

	start := time.Now()
	doc, err := s.calculate(ctx, studentID, initiatingUserID)
	var overall models.ResultStatus
	if doc != nil {
		overall = doc.OverallResult
	}
	s.metrics.ObserveCalculation(overall, time.Since(start), err)
	if err != nil {
		s.logger.Error("transcript calculation failed", zap.String("student_id", studentID), zap.String("initiated_by", initiatingUserID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("transcript calculated",
		zap.String("student_id", studentID),
		zap.String("initiated_by", initiatingUserID),
		zap.String("overall_result", string(doc.OverallResult)),
		zap.Int("blocks", len(doc.BlockResults)),
		zap.Duration("duration", time.Since(start)),
	)
	s.refreshCache(ctx, doc)
	return doc, nil
}

func (s *TranscriptService) calculate(ctx context.Context, studentID, initiatingUserID string) (*models.FinalTranscriptResult, error) {
	blocks, err := s.structure.ListActiveBlocks(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grading structure")
	}
	results, err := s.results.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student test results")
	}

	calc := newTranscriptCalculator(results, s.logger.With(zap.String("student_id", studentID)))
	calc.weightDeviation = func(string, float64) { s.metrics.RecordWeightDeviation() }
	blockResults, overall := calc.calculate(blocks)

	doc := &models.FinalTranscriptResult{
		Student:       studentID,
		OverallResult: overall,
		BlockResults:  blockResults,
		CalculatedBy:  initiatingUserID,
	}
	if err := s.transcripts.Upsert(ctx, doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistenceFailed.Code, appErrors.ErrPersistenceFailed.Status, fmt.Sprintf("transcript upsert for student %s returned nothing", studentID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist transcript")
	}
	return doc, nil
}

func (s *TranscriptService) refreshCache(ctx context.Context, doc *models.FinalTranscriptResult) {
	key := TranscriptKey(doc.Student)
	if err := s.cache.Set(ctx, key, doc, s.cfg.CacheTTL); err != nil {
		_ = s.cache.Invalidate(ctx, key)
	}
}

// GetTranscript returns the stored transcript of a student and whether it was
// served from cache.
func (s *TranscriptService) GetTranscript(ctx context.Context, studentID string) (*models.FinalTranscriptResult, bool, error) {
	if studentID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "student id required")
	}
	key := TranscriptKey(studentID)
	var cached models.FinalTranscriptResult
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}
	doc, err := s.transcripts.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "transcript not calculated yet")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
	}
	_ = s.cache.Set(ctx, key, doc, s.cfg.CacheTTL)
	return doc, false, nil
}

// RecalculateStudents recalculates many students concurrently. Students are
// independent, so one failing run does not stop the others; only a cancelled
// context aborts the batch.
func (s *TranscriptService) RecalculateStudents(ctx context.Context, req dto.RecalculateTranscriptsRequest, initiatingUserID string) (*dto.RecalculateTranscriptsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recalculation payload")
	}
	if initiatingUserID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "initiating user required")
	}
	studentIDs := dedupeStrings(req.StudentIDs)
	if len(studentIDs) == 0 {
		ids, err := s.results.ListStudentIDs(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
		}
		studentIDs = ids
	}
	limit := req.Concurrency
	if limit <= 0 {
		limit = s.cfg.BatchConcurrency
	}

	result := &dto.RecalculateTranscriptsResult{Total: len(studentIDs)}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, studentID := range studentIDs {
		studentID := studentID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := s.CalculateFinalTranscript(gctx, studentID, initiatingUserID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Errored++
				result.Failures = append(result.Failures, dto.TranscriptCalculationFail{StudentID: studentID, Reason: err.Error()})
			case doc.OverallResult == models.ResultPass:
				result.Passed++
			default:
				result.Failed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "recalculation aborted")
	}
	if err := ctx.Err(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "recalculation aborted")
	}
	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].StudentID < result.Failures[j].StudentID })

	s.logger.Info("transcripts recalculated",
		zap.Int("total", result.Total),
		zap.Int("passed", result.Passed),
		zap.Int("failed", result.Failed),
		zap.Int("errored", result.Errored),
	)
	return result, nil
}

// ExportTranscript renders the stored transcript as CSV or PDF.
func (s *TranscriptService) ExportTranscript(ctx context.Context, studentID string, format models.ExportFormat) (*TranscriptExport, error) {
	if format == "" {
		format = models.ExportFormatCSV
	}
	if err := s.validator.Struct(dto.ExportTranscriptQuery{Format: format}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}
	doc, _, err := s.GetTranscript(ctx, studentID)
	if err != nil {
		return nil, err
	}
	data := transcriptDataset(doc)
	filename := fmt.Sprintf("transcript-%s.%s", studentID, format)
	switch format {
	case models.ExportFormatPDF:
		content, err := s.pdf.Render(data, "Transcript "+studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		return &TranscriptExport{Filename: filename, ContentType: "application/pdf", Content: content}, nil
	default:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
		}
		return &TranscriptExport{Filename: filename, ContentType: "text/csv", Content: content}, nil
	}
}

func transcriptDataset(doc *models.FinalTranscriptResult) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Level", "Reference", "Mark", "Weighted", "Result"},
		Align:   map[string]string{"Mark": "R", "Weighted": "R", "Result": "C"},
		Strong:  func(row map[string]string) bool { return row["Level"] == string(models.GradingLevelBlock) },
	}
	row := func(level models.GradingLevel, ref string, mark float64, weighted string, result models.ResultStatus) {
		data.Rows = append(data.Rows, map[string]string{
			"Level":     string(level),
			"Reference": ref,
			"Mark":      fmt.Sprintf("%.2f", mark),
			"Weighted":  weighted,
			"Result":    string(result),
		})
	}
	for _, block := range doc.BlockResults {
		row(models.GradingLevelBlock, block.Block, block.BlockTotalMark, "", block.BlockResult)
		for _, subject := range block.SubjectResults {
			row(models.GradingLevelSubject, subject.Subject, subject.SubjectTotalMark, "", subject.SubjectResult)
			for _, test := range subject.TestResults {
				row(models.GradingLevelTest, test.Test, test.TestTotalMark, fmt.Sprintf("%.2f", test.TestWeightedMark), test.TestResult)
			}
		}
	}
	data.Footer = []string{fmt.Sprintf("Overall result: %s", doc.OverallResult)}
	return data
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	unique := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
	}
	return unique
}
