package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-transcript-api/internal/dto"
	"github.com/noah-isme/sma-transcript-api/internal/middleware"
	"github.com/noah-isme/sma-transcript-api/internal/models"
	"github.com/noah-isme/sma-transcript-api/internal/service"
	appErrors "github.com/noah-isme/sma-transcript-api/pkg/errors"
	"github.com/noah-isme/sma-transcript-api/pkg/response"
)

type transcriptAPI interface {
	CalculateFinalTranscript(ctx context.Context, studentID, initiatingUserID string) (*models.FinalTranscriptResult, error)
	GetTranscript(ctx context.Context, studentID string) (*models.FinalTranscriptResult, bool, error)
	RecalculateStudents(ctx context.Context, req dto.RecalculateTranscriptsRequest, initiatingUserID string) (*dto.RecalculateTranscriptsResult, error)
	ExportTranscript(ctx context.Context, studentID string, format models.ExportFormat) (*service.TranscriptExport, error)
}

type transcriptSubmitter interface {
	Submit(studentID, initiatedBy string) (string, bool, error)
}

// TranscriptHandler exposes transcript calculation endpoints.
type TranscriptHandler struct {
	transcripts transcriptAPI
	worker      transcriptSubmitter
}

// NewTranscriptHandler constructs handler. A nil worker disables async mode.
func NewTranscriptHandler(transcripts transcriptAPI, worker transcriptSubmitter) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts, worker: worker}
}

// Calculate godoc
// @Summary Calculate a student's final transcript
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Param async query bool false "Queue the calculation instead of waiting"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /students/{id}/transcript/calculate [post]
func (h *TranscriptHandler) Calculate(c *gin.Context) {
	claims, ok := initiator(c)
	if !ok {
		return
	}
	studentID := c.Param("id")

	async, _ := strconv.ParseBool(c.Query("async"))
	if async {
		if h.worker == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "async calculation disabled"))
			return
		}
		jobID, queued, err := h.worker.Submit(studentID, claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, dto.TranscriptJobResponse{JobID: jobID, StudentID: studentID, Queued: queued})
		return
	}

	doc, err := h.transcripts.CalculateFinalTranscript(c.Request.Context(), studentID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc)
}

// Get godoc
// @Summary Get a student's final transcript
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	doc, hit, err := h.transcripts.GetTranscript(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, doc, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Download a student's final transcript
// @Tags Transcripts
// @Produce text/csv,application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /students/{id}/transcript/export [get]
func (h *TranscriptHandler) Export(c *gin.Context) {
	var query dto.ExportTranscriptQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query"))
		return
	}
	file, err := h.transcripts.ExportTranscript(c.Request.Context(), c.Param("id"), query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content)
}

// Recalculate godoc
// @Summary Recalculate transcripts for many students
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param payload body dto.RecalculateTranscriptsRequest false "Students to recalculate; empty means all"
// @Success 200 {object} response.Envelope
// @Router /transcripts/recalculate [post]
func (h *TranscriptHandler) Recalculate(c *gin.Context) {
	claims, ok := initiator(c)
	if !ok {
		return
	}
	var req dto.RecalculateTranscriptsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
			return
		}
	}
	result, err := h.transcripts.RecalculateStudents(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
