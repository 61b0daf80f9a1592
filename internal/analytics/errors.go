package analytics

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientData is returned when there are too few students to form comparison groups
var ErrInsufficientData = errors.New("not enough students to compute discrimination index")

// MissingColumnsError is returned when the dataset lacks columns an analysis requires
type MissingColumnsError struct {
	Columns []string `json:"columns"`
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// IsMissingColumns reports whether err is a MissingColumnsError
func IsMissingColumns(err error) bool {
	var mce *MissingColumnsError
	return errors.As(err, &mce)
}

// Status describes whether a successful analysis produced data. Non-OK statuses are
// informational: the selection is valid but has nothing to show.
type Status string

const (
	StatusOK                Status = "ok"
	StatusNoDataForQuestion Status = "no_data_for_question"
	StatusNoErrorData       Status = "no_error_data"
	StatusNoGradeData       Status = "no_grade_data"
)

// Message returns the neutral user-facing text for the status
func (s Status) Message() string {
	switch s {
	case StatusNoDataForQuestion:
		return "No responses available for the selected question."
	case StatusNoErrorData:
		return "No error data available for the selected question."
	case StatusNoGradeData:
		return "No numeric grades available to summarize."
	default:
		return ""
	}
}

// IsEmpty reports whether the status marks an informational empty result
func (s Status) IsEmpty() bool {
	return s != StatusOK && s != ""
}
