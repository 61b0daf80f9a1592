package models

// Dataset column names referenced by the analyses
const (
	ColumnStudentID     = "student_id"
	ColumnQuestion      = "question"
	ColumnGrade         = "grade"
	ColumnErrorSummary  = "error_summary"
	ColumnErrorCategory = "error_category"
)

// DefaultDatasetID identifies the dataset loaded from the configured default path
const DefaultDatasetID = "default"

// naTokens are cell values treated as missing, matching common CSV exports
var naTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"-nan": {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
	"#NA":  {},
	"<NA>": {},
}

// IsNA reports whether a raw cell value represents a missing value
func IsNA(value string) bool {
	_, ok := naTokens[value]
	return ok
}

// Dataset is a tabular set of response records. It is never mutated after load.
type Dataset struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ResponseRecord is the typed view of a single dataset row. Nil fields are missing values.
type ResponseRecord struct {
	StudentID     *string `json:"student_id"`
	Question      *string `json:"question"`
	Grade         *string `json:"grade"`
	ErrorSummary  *string `json:"error_summary"`
	ErrorCategory *string `json:"error_category"`
}

// ColumnIndex returns the position of a column or -1 when absent
func (d *Dataset) ColumnIndex(name string) int {
	for i, col := range d.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the column exists
func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// MissingColumns returns the required columns that are absent, in the order given
func (d *Dataset) MissingColumns(required ...string) []string {
	var missing []string
	for _, col := range required {
		if !d.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Len returns the number of data rows
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Cell returns the value at row/column, and false when the column is absent or the value is missing.
// Only exact NA tokens are missing; a whitespace-only cell is a value.
func (d *Dataset) Cell(row int, column int) (string, bool) {
	if column < 0 || row < 0 || row >= len(d.Rows) {
		return "", false
	}
	values := d.Rows[row]
	if column >= len(values) {
		return "", false
	}
	value := values[column]
	if IsNA(value) {
		return "", false
	}
	return value, true
}

// Records builds the typed view of every row
func (d *Dataset) Records() []ResponseRecord {
	studentIdx := d.ColumnIndex(ColumnStudentID)
	questionIdx := d.ColumnIndex(ColumnQuestion)
	gradeIdx := d.ColumnIndex(ColumnGrade)
	summaryIdx := d.ColumnIndex(ColumnErrorSummary)
	categoryIdx := d.ColumnIndex(ColumnErrorCategory)

	records := make([]ResponseRecord, len(d.Rows))
	for i := range d.Rows {
		records[i] = ResponseRecord{
			StudentID:     d.optional(i, studentIdx),
			Question:      d.optional(i, questionIdx),
			Grade:         d.optional(i, gradeIdx),
			ErrorSummary:  d.optional(i, summaryIdx),
			ErrorCategory: d.optional(i, categoryIdx),
		}
	}
	return records
}

func (d *Dataset) optional(row, column int) *string {
	value, ok := d.Cell(row, column)
	if !ok {
		return nil
	}
	return &value
}

// Head returns a view of the dataset limited to the first n rows
func (d *Dataset) Head(n int) *Dataset {
	if n < 0 || n > len(d.Rows) {
		n = len(d.Rows)
	}
	return &Dataset{
		ID:      d.ID,
		Name:    d.Name,
		Columns: d.Columns,
		Rows:    d.Rows[:n],
	}
}

// DatasetSummary describes a loaded dataset for the presentation layer
type DatasetSummary struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Rows           int      `json:"rows"`
	Columns        []string `json:"columns"`
	Questions      int      `json:"questions"`
	Students       int      `json:"students"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	IsDefault      bool     `json:"is_default"`
}
