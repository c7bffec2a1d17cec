package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ResultStatus is the outcome of a pass/fail decision.
type ResultStatus string

const (
	ResultPass ResultStatus = "PASS"
	ResultFail ResultStatus = "FAIL"
)

// ExportFormat enumerates supported transcript export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// TestResult is the evaluated outcome of one test.
type TestResult struct {
	Test             string       `json:"test"`
	TestResult       ResultStatus `json:"test_result"`
	TestTotalMark    float64      `json:"test_total_mark"`
	TestWeightedMark float64      `json:"test_weighted_mark"`
}

// SubjectResult is the evaluated outcome of one subject.
type SubjectResult struct {
	Subject          string       `json:"subject"`
	TestResults      []TestResult `json:"test_results"`
	SubjectTotalMark float64      `json:"subject_total_mark"`
	SubjectResult    ResultStatus `json:"subject_result"`
}

// BlockResult is the evaluated outcome of one block.
type BlockResult struct {
	Block          string          `json:"block"`
	SubjectResults []SubjectResult `json:"subject_results"`
	BlockTotalMark float64         `json:"block_total_mark"`
	BlockResult    ResultStatus    `json:"block_result"`
}

// BlockResults is persisted as JSONB.
type BlockResults []BlockResult

// Value marshals block results to JSON for persistence.
func (b BlockResults) Value() (driver.Value, error) {
	if b == nil {
		b = BlockResults{}
	}
	data, err := json.Marshal([]BlockResult(b))
	if err != nil {
		return nil, fmt.Errorf("marshal block results: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON block results.
func (b *BlockResults) Scan(value interface{}) error {
	data, err := jsonBytes(value, "BlockResults")
	if err != nil {
		return err
	}
	*b = nil
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, (*[]BlockResult)(b)); err != nil {
		return fmt.Errorf("unmarshal block results: %w", err)
	}
	return nil
}

// FinalTranscriptResult is the per-student transcript document.
type FinalTranscriptResult struct {
	ID            string       `db:"id" json:"id"`
	Student       string       `db:"student_id" json:"student"`
	OverallResult ResultStatus `db:"overall_result" json:"overall_result"`
	BlockResults  BlockResults `db:"block_results" json:"block_results"`
	CalculatedBy  string       `db:"calculated_by" json:"calculated_by"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}
