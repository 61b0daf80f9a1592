package analytics

import (
	"sort"
	"strings"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

// DefaultTopN is used when a non-positive limit is requested
const DefaultTopN = 10

// CategoryLimit is the number of categories shown before the remainder is folded into Others
const CategoryLimit = 4

// OthersLabel labels the folded remainder of a category breakdown
const OthersLabel = "Others"

// NEA stages of Newman's Error Analysis, lower-cased as they appear after tag normalization
var neaCategories = []string{"reading", "comprehension", "transformation", "process skills", "encoding"}

// IsNEACategory reports whether a normalized tag names one of the five NEA stages
func IsNEACategory(tag string) bool {
	tag = strings.TrimSpace(strings.ToLower(tag))
	for _, c := range neaCategories {
		if c == tag {
			return true
		}
	}
	return false
}

// ErrorFrequency is one tag's count and share of all tags for a question
type ErrorFrequency struct {
	Tag        string  `json:"tag"`
	Frequency  int     `json:"frequency"`
	Percentage float64 `json:"percentage"`
}

// ErrorTypeReport is the result of TopErrorTypes
type ErrorTypeReport struct {
	Question     string           `json:"question"`
	Status       Status           `json:"status"`
	Errors       []ErrorFrequency `json:"errors"`
	TotalTags    int              `json:"total_tags"`
	DistinctTags int              `json:"distinct_tags"`
}

// CategoryShare is one slice of an error category breakdown
type CategoryShare struct {
	Label      string  `json:"label"`
	Frequency  int     `json:"frequency"`
	Percentage float64 `json:"percentage"`
	Known      bool    `json:"known"`
}

// CategoryReport is the result of ErrorCategoryBreakdown
type CategoryReport struct {
	Question     string          `json:"question"`
	Status       Status          `json:"status"`
	Categories   []CategoryShare `json:"categories"`
	TotalTags    int             `json:"total_tags"`
	DistinctTags int             `json:"distinct_tags"`
}

// TopErrorTypes returns the n most frequent error_summary tags for a question.
// Ties keep the order in which tags were first seen.
func TopErrorTypes(ds *models.Dataset, question string, n int) (*ErrorTypeReport, error) {
	if missing := ds.MissingColumns(models.ColumnQuestion, models.ColumnErrorSummary); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}
	if n <= 0 {
		n = DefaultTopN
	}

	report := &ErrorTypeReport{Question: question, Errors: []ErrorFrequency{}}

	values, found := questionValues(ds, question, func(r models.ResponseRecord) *string { return r.ErrorSummary })
	if !found {
		report.Status = StatusNoDataForQuestion
		return report, nil
	}

	freqs, total := tagFrequencies(values)
	if total == 0 {
		report.Status = StatusNoErrorData
		return report, nil
	}

	report.Status = StatusOK
	report.TotalTags = total
	report.DistinctTags = len(freqs)
	if len(freqs) > n {
		freqs = freqs[:n]
	}
	report.Errors = freqs
	return report, nil
}

// ErrorCategoryBreakdown returns the top four error_category tags for a question
// and folds the remaining share into an Others slice when it is positive.
func ErrorCategoryBreakdown(ds *models.Dataset, question string) (*CategoryReport, error) {
	if missing := ds.MissingColumns(models.ColumnQuestion, models.ColumnErrorCategory); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	report := &CategoryReport{Question: question, Categories: []CategoryShare{}}

	values, found := questionValues(ds, question, func(r models.ResponseRecord) *string { return r.ErrorCategory })
	if !found {
		report.Status = StatusNoDataForQuestion
		return report, nil
	}

	freqs, total := tagFrequencies(values)
	if total == 0 {
		report.Status = StatusNoErrorData
		return report, nil
	}

	report.Status = StatusOK
	report.TotalTags = total
	report.DistinctTags = len(freqs)

	if len(freqs) > CategoryLimit {
		freqs = freqs[:CategoryLimit]
	}

	var shown float64
	for _, f := range freqs {
		shown += f.Percentage
		report.Categories = append(report.Categories, CategoryShare{
			Label:      f.Tag,
			Frequency:  f.Frequency,
			Percentage: f.Percentage,
			Known:      IsNEACategory(f.Tag),
		})
	}

	if others := roundTo(100-shown, 2); others > 0 {
		var folded int
		for _, f := range freqs {
			folded += f.Frequency
		}
		report.Categories = append(report.Categories, CategoryShare{
			Label:      OthersLabel,
			Frequency:  total - folded,
			Percentage: others,
		})
	}
	return report, nil
}

// questionValues collects the non-null values of a field for rows matching the question.
// found is false when no row carries the question at all.
func questionValues(ds *models.Dataset, question string, field func(models.ResponseRecord) *string) ([]string, bool) {
	var (
		values []string
		found  bool
	)
	for _, rec := range ds.Records() {
		if rec.Question == nil || *rec.Question != question {
			continue
		}
		found = true
		if v := field(rec); v != nil {
			values = append(values, *v)
		}
	}
	return values, found
}

// tagFrequencies splits values into tags and counts them, highest count first.
// Percentages are relative to the total number of tags.
func tagFrequencies(values []string) ([]ErrorFrequency, int) {
	index := make(map[string]int)
	var freqs []ErrorFrequency
	total := 0

	for _, v := range values {
		for _, tag := range splitTags(v) {
			i, ok := index[tag]
			if !ok {
				i = len(freqs)
				index[tag] = i
				freqs = append(freqs, ErrorFrequency{Tag: tag})
			}
			freqs[i].Frequency++
			total++
		}
	}

	sort.SliceStable(freqs, func(a, b int) bool { return freqs[a].Frequency > freqs[b].Frequency })
	for i := range freqs {
		freqs[i].Percentage = roundTo(float64(freqs[i].Frequency)/float64(total)*100, 2)
	}
	return freqs, total
}
