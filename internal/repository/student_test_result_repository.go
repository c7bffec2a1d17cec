package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-transcript-api/internal/models"
)

// StudentTestResultRepository reads the marks recorded per student and test.
type StudentTestResultRepository struct {
	db *sqlx.DB
}

// NewStudentTestResultRepository constructs repository.
func NewStudentTestResultRepository(db *sqlx.DB) *StudentTestResultRepository {
	return &StudentTestResultRepository{db: db}
}

// ListByStudent returns all test results of a student.
func (r *StudentTestResultRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentTestResult, error) {
	const query = `SELECT id, student_id, test_id, marks, average_mark
        FROM student_test_results WHERE student_id = $1 ORDER BY test_id`
	var results []models.StudentTestResult
	if err := r.db.SelectContext(ctx, &results, query, studentID); err != nil {
		return nil, fmt.Errorf("list student test results: %w", err)
	}
	return results, nil
}

// ListStudentIDs returns every student that has at least one result.
func (r *StudentTestResultRepository) ListStudentIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT student_id FROM student_test_results ORDER BY student_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list result students: %w", err)
	}
	return ids, nil
}
