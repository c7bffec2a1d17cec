package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-transcript-api/internal/models"
)

// FinalTranscriptRepository persists one transcript document per student.
type FinalTranscriptRepository struct {
	db *sqlx.DB
}

// NewFinalTranscriptRepository constructs repository.
func NewFinalTranscriptRepository(db *sqlx.DB) *FinalTranscriptRepository {
	return &FinalTranscriptRepository{db: db}
}

// Upsert replaces the student's transcript or inserts it when absent. The
// stored id, created_at and updated_at are written back into doc. When the
// statement returns no row the wrapped error is sql.ErrNoRows.
func (r *FinalTranscriptRepository) Upsert(ctx context.Context, doc *models.FinalTranscriptResult) error {
	const query = `INSERT INTO final_transcript_results (id, student_id, overall_result, block_results, calculated_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)
        ON CONFLICT (student_id)
        DO UPDATE SET overall_result = EXCLUDED.overall_result, block_results = EXCLUDED.block_results, calculated_by = EXCLUDED.calculated_by, updated_at = EXCLUDED.updated_at
        RETURNING id, created_at, updated_at`
	id := doc.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	row := r.db.QueryRowxContext(ctx, query, id, doc.Student, doc.OverallResult, doc.BlockResults, doc.CalculatedBy, now)
	if err := row.Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return fmt.Errorf("upsert final transcript: %w", err)
	}
	return nil
}

// FindByStudent returns the stored transcript; sql.ErrNoRows when none exists.
func (r *FinalTranscriptRepository) FindByStudent(ctx context.Context, studentID string) (*models.FinalTranscriptResult, error) {
	const query = `SELECT id, student_id, overall_result, block_results, calculated_by, created_at, updated_at
        FROM final_transcript_results WHERE student_id = $1`
	var doc models.FinalTranscriptResult
	if err := r.db.GetContext(ctx, &doc, query, studentID); err != nil {
		return nil, err
	}
	return &doc, nil
}
