package analytics

import (
	"math"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

// FilterStats reports how many rows survived grade filtering
type FilterStats struct {
	TotalRows         int `json:"total_rows"`
	KeptRows          int `json:"kept_rows"`
	DroppedMissing    int `json:"dropped_missing"`
	DroppedNonNumeric int `json:"dropped_non_numeric"`
}

// GradedResponse is a response row with a finite numeric grade
type GradedResponse struct {
	StudentID string
	Question  string
	Grade     float64
}

// FilterGrades drops rows with a missing student, question or grade, then drops rows
// whose grade does not parse as a finite number.
func FilterGrades(records []models.ResponseRecord) ([]GradedResponse, FilterStats) {
	stats := FilterStats{TotalRows: len(records)}
	responses := make([]GradedResponse, 0, len(records))

	for _, rec := range records {
		if rec.StudentID == nil || rec.Question == nil || rec.Grade == nil {
			stats.DroppedMissing++
			continue
		}
		grade, ok := ParseGrade(*rec.Grade)
		if !ok {
			stats.DroppedNonNumeric++
			continue
		}
		responses = append(responses, GradedResponse{
			StudentID: *rec.StudentID,
			Question:  *rec.Question,
			Grade:     grade,
		})
	}

	stats.KeptRows = len(responses)
	return responses, stats
}

// ParseGrade coerces a raw grade to a finite float
func ParseGrade(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// grades extracts every finite grade from the records, ignoring the other columns
func grades(records []models.ResponseRecord) ([]float64, FilterStats) {
	stats := FilterStats{TotalRows: len(records)}
	values := make([]float64, 0, len(records))
	for _, rec := range records {
		if rec.Grade == nil {
			stats.DroppedMissing++
			continue
		}
		grade, ok := ParseGrade(*rec.Grade)
		if !ok {
			stats.DroppedNonNumeric++
			continue
		}
		values = append(values, grade)
	}
	stats.KeptRows = len(values)
	return values, stats
}

// roundTo rounds half to even at the given number of decimals
func roundTo(value float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.RoundToEven(value*scale) / scale
}

// tagSeparator splits multi-valued text fields
const tagSeparator = ", "

// splitTags lower-cases and splits a multi-valued field. An empty segment is kept as an empty tag.
func splitTags(value string) []string {
	return strings.Split(strings.ToLower(value), tagSeparator)
}
