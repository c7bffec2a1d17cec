package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// GradingStatus captures the lifecycle of a block, subject or test.
type GradingStatus string

const (
	GradingStatusActive   GradingStatus = "ACTIVE"
	GradingStatusInactive GradingStatus = "INACTIVE"
	GradingStatusDeleted  GradingStatus = "DELETED"
)

// GradingLevel identifies the level of the grading hierarchy.
type GradingLevel string

const (
	GradingLevelBlock   GradingLevel = "BLOCK"
	GradingLevelSubject GradingLevel = "SUBJECT"
	GradingLevelTest    GradingLevel = "TEST"
)

// CriteriaType selects the source value of a condition.
type CriteriaType string

const (
	// CriteriaTypeMark compares a single notation mark.
	CriteriaTypeMark CriteriaType = "MARK"
	// CriteriaTypeAverage compares the rolled-up score of the judged entity.
	CriteriaTypeAverage CriteriaType = "AVERAGE"
)

// ComparisonOperator enumerates supported threshold comparisons.
type ComparisonOperator string

const (
	ComparisonGTE ComparisonOperator = "GTE"
	ComparisonLTE ComparisonOperator = "LTE"
	ComparisonGT  ComparisonOperator = "GT"
	ComparisonLT  ComparisonOperator = "LT"
	ComparisonE   ComparisonOperator = "E"
)

// Condition is a single authored comparison.
type Condition struct {
	CriteriaType       CriteriaType       `json:"criteria_type"`
	Subject            *string            `json:"subject,omitempty"`
	Test               *string            `json:"test,omitempty"`
	NotationText       *string            `json:"notation_text,omitempty"`
	ComparisonOperator ComparisonOperator `json:"comparison_operator"`
	Mark               float64            `json:"mark"`
}

// ConditionGroup holds conditions that must all hold.
type ConditionGroup struct {
	Conditions []Condition `json:"conditions"`
}

// CriteriaSet holds condition groups of which any one must hold. Only the
// field matching the level of the judged entity is read.
type CriteriaSet struct {
	BlockCriteriaGroups   []ConditionGroup `json:"block_criteria_groups,omitempty"`
	SubjectCriteriaGroups []ConditionGroup `json:"subject_criteria_groups,omitempty"`
	TestCriteriaGroups    []ConditionGroup `json:"test_criteria_groups,omitempty"`
}

// GroupsFor returns the condition groups authored for the given level.
func (c *CriteriaSet) GroupsFor(level GradingLevel) []ConditionGroup {
	if c == nil {
		return nil
	}
	switch level {
	case GradingLevelBlock:
		return c.BlockCriteriaGroups
	case GradingLevelSubject:
		return c.SubjectCriteriaGroups
	case GradingLevelTest:
		return c.TestCriteriaGroups
	default:
		return nil
	}
}

// PassingCriteria pairs optional pass and fail criteria. It is persisted as JSONB.
type PassingCriteria struct {
	PassCriteria *CriteriaSet `json:"pass_criteria,omitempty"`
	FailCriteria *CriteriaSet `json:"fail_criteria,omitempty"`
}

// Value marshals the criteria to JSON for persistence.
func (p PassingCriteria) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal passing criteria: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the criteria.
func (p *PassingCriteria) Scan(value interface{}) error {
	data, err := jsonBytes(value, "PassingCriteria")
	if err != nil {
		return err
	}
	*p = PassingCriteria{}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal passing criteria: %w", err)
	}
	return nil
}

// Block is the top level of a grading structure.
type Block struct {
	ID              string          `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Status          GradingStatus   `db:"status" json:"status"`
	Position        int             `db:"position" json:"position"`
	PassingCriteria PassingCriteria `db:"passing_criteria" json:"block_passing_criteria"`
	Subjects        []Subject       `db:"-" json:"subjects,omitempty"`
}

// Subject belongs to a block and is weighted by its coefficient.
type Subject struct {
	ID              string          `db:"id" json:"id"`
	BlockID         string          `db:"block_id" json:"block_id"`
	Name            string          `db:"name" json:"name"`
	Coefficient     float64         `db:"coefficient" json:"coefficient"`
	Status          GradingStatus   `db:"status" json:"status"`
	Position        int             `db:"position" json:"position"`
	PassingCriteria PassingCriteria `db:"passing_criteria" json:"subject_passing_criteria"`
	Tests           []Test          `db:"-" json:"tests,omitempty"`
}

// Test belongs to a subject and is weighted by its weight.
type Test struct {
	ID              string          `db:"id" json:"id"`
	SubjectID       string          `db:"subject_id" json:"subject_id"`
	Name            string          `db:"name" json:"name"`
	Weight          float64         `db:"weight" json:"weight"`
	Status          GradingStatus   `db:"status" json:"status"`
	Position        int             `db:"position" json:"position"`
	PassingCriteria PassingCriteria `db:"passing_criteria" json:"test_passing_criteria"`
}

// NotationMark is the mark recorded for one named part of a test.
type NotationMark struct {
	NotationText string  `json:"notation_text"`
	Mark         float64 `json:"mark"`
}

// NotationMarks is persisted as a JSONB array.
type NotationMarks []NotationMark

// Value marshals marks to JSON for persistence.
func (m NotationMarks) Value() (driver.Value, error) {
	if m == nil {
		m = NotationMarks{}
	}
	data, err := json.Marshal([]NotationMark(m))
	if err != nil {
		return nil, fmt.Errorf("marshal notation marks: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON array of marks.
func (m *NotationMarks) Scan(value interface{}) error {
	data, err := jsonBytes(value, "NotationMarks")
	if err != nil {
		return err
	}
	*m = nil
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, (*[]NotationMark)(m)); err != nil {
		return fmt.Errorf("unmarshal notation marks: %w", err)
	}
	return nil
}

// StudentTestResult stores a student's marks for one test.
type StudentTestResult struct {
	ID          string        `db:"id" json:"id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	TestID      string        `db:"test_id" json:"test_id"`
	Marks       NotationMarks `db:"marks" json:"marks"`
	AverageMark float64       `db:"average_mark" json:"average_mark"`
}

func jsonBytes(value interface{}, target string) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T for %s", value, target)
	}
}
