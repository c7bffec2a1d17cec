package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-transcript-api/internal/models"
)

// GradingStructureRepository reads the Block → Subject → Test hierarchy.
type GradingStructureRepository struct {
	db *sqlx.DB
}

// NewGradingStructureRepository constructs repository.
func NewGradingStructureRepository(db *sqlx.DB) *GradingStructureRepository {
	return &GradingStructureRepository{db: db}
}

// ListActiveBlocks returns every ACTIVE block with its ACTIVE subjects and their
// ACTIVE tests. A subject under an inactive block, or a test under an inactive
// subject, is left out of the tree.
func (r *GradingStructureRepository) ListActiveBlocks(ctx context.Context) ([]models.Block, error) {
	const blockQuery = `SELECT id, name, status, position, passing_criteria
        FROM grading_blocks WHERE status = $1 ORDER BY position, id`
	var blocks []models.Block
	if err := r.db.SelectContext(ctx, &blocks, blockQuery, models.GradingStatusActive); err != nil {
		return nil, fmt.Errorf("list active blocks: %w", err)
	}

	const subjectQuery = `SELECT id, block_id, name, coefficient, status, position, passing_criteria
        FROM grading_subjects WHERE status = $1 ORDER BY position, id`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, subjectQuery, models.GradingStatusActive); err != nil {
		return nil, fmt.Errorf("list active subjects: %w", err)
	}

	const testQuery = `SELECT id, subject_id, name, weight, status, position, passing_criteria
        FROM grading_tests WHERE status = $1 ORDER BY position, id`
	var tests []models.Test
	if err := r.db.SelectContext(ctx, &tests, testQuery, models.GradingStatusActive); err != nil {
		return nil, fmt.Errorf("list active tests: %w", err)
	}

	return assembleTree(blocks, subjects, tests), nil
}

func assembleTree(blocks []models.Block, subjects []models.Subject, tests []models.Test) []models.Block {
	testsBySubject := make(map[string][]models.Test, len(subjects))
	for _, test := range tests {
		testsBySubject[test.SubjectID] = append(testsBySubject[test.SubjectID], test)
	}
	subjectsByBlock := make(map[string][]models.Subject, len(blocks))
	for _, subject := range subjects {
		subject.Tests = testsBySubject[subject.ID]
		subjectsByBlock[subject.BlockID] = append(subjectsByBlock[subject.BlockID], subject)
	}
	for i := range blocks {
		blocks[i].Subjects = subjectsByBlock[blocks[i].ID]
	}
	return blocks
}
