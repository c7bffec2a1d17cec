package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-transcript-api/internal/models"
)

func TestFinalTranscriptRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newGradingRepoMock(t)
	defer cleanup()
	repo := NewFinalTranscriptRepository(db)

	created := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO final_transcript_results")+"(.|\n)*"+regexp.QuoteMeta("ON CONFLICT (student_id)")).
		WithArgs(sqlmock.AnyArg(), "stu-1", "PASS", sqlmock.AnyArg(), "user-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("tr-1", created, updated))

	doc := &models.FinalTranscriptResult{
		Student:       "stu-1",
		OverallResult: models.ResultPass,
		BlockResults:  models.BlockResults{{Block: "b1", BlockTotalMark: 72.2, BlockResult: models.ResultPass}},
		CalculatedBy:  "user-1",
	}
	require.NoError(t, repo.Upsert(context.Background(), doc))
	require.Equal(t, "tr-1", doc.ID)
	require.Equal(t, created, doc.CreatedAt)
	require.Equal(t, updated, doc.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalTranscriptRepositoryUpsertReturnsNothing(t *testing.T) {
	db, mock, cleanup := newGradingRepoMock(t)
	defer cleanup()
	repo := NewFinalTranscriptRepository(db)

	mock.ExpectQuery("INSERT INTO final_transcript_results").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))

	err := repo.Upsert(context.Background(), &models.FinalTranscriptResult{Student: "stu-1", OverallResult: models.ResultFail})
	require.Error(t, err)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalTranscriptRepositoryFindByStudent(t *testing.T) {
	db, mock, cleanup := newGradingRepoMock(t)
	defer cleanup()
	repo := NewFinalTranscriptRepository(db)

	blocks := `[{"block":"b1","subject_results":[{"subject":"s1","test_results":[],"subject_total_mark":68,"subject_result":"PASS"}],"block_total_mark":68,"block_result":"PASS"}]`
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, overall_result, block_results, calculated_by, created_at, updated_at FROM final_transcript_results WHERE student_id = $1")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "overall_result", "block_results", "calculated_by", "created_at", "updated_at"}).
			AddRow("tr-1", "stu-1", "PASS", []byte(blocks), "user-1", time.Now(), time.Now()))

	doc, err := repo.FindByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Equal(t, models.ResultPass, doc.OverallResult)
	require.Len(t, doc.BlockResults, 1)
	require.Equal(t, "s1", doc.BlockResults[0].SubjectResults[0].Subject)
	require.Equal(t, 68.0, doc.BlockResults[0].SubjectResults[0].SubjectTotalMark)

	mock.ExpectQuery("FROM final_transcript_results").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByStudent(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
