package dto

import "github.com/noah-isme/sma-transcript-api/internal/models"

// CalculateTranscriptRequest identifies one transcript run.
type CalculateTranscriptRequest struct {
	StudentID   string `json:"studentId" validate:"required"`
	InitiatedBy string `json:"initiatedBy" validate:"required"`
}

// RecalculateTranscriptsRequest captures POST /transcripts/recalculate payload.
// An empty StudentIDs list means every student with recorded results.
type RecalculateTranscriptsRequest struct {
	StudentIDs  []string `json:"studentIds" validate:"omitempty,dive,required"`
	Concurrency int      `json:"concurrency" validate:"omitempty,min=1,max=64"`
}

// RecalculateTranscriptsResult summarises a batch run.
type RecalculateTranscriptsResult struct {
	Total    int                         `json:"total"`
	Passed   int                         `json:"passed"`
	Failed   int                         `json:"failed"`
	Errored  int                         `json:"errored"`
	Failures []TranscriptCalculationFail `json:"failures,omitempty"`
}

// TranscriptCalculationFail describes a student whose run errored.
type TranscriptCalculationFail struct {
	StudentID string `json:"studentId"`
	Reason    string `json:"reason"`
}

// TranscriptJobResponse is returned when a calculation is queued.
type TranscriptJobResponse struct {
	JobID     string `json:"jobId"`
	StudentID string `json:"studentId"`
	Queued    bool   `json:"queued"`
}

// ExportTranscriptQuery captures GET /students/:id/transcript/export query params.
type ExportTranscriptQuery struct {
	Format models.ExportFormat `form:"format" validate:"omitempty,oneof=csv pdf"`
}
