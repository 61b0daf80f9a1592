package dataset

import (
	"sort"
	"strings"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

// DefaultSearchColumns are searched when the caller names none
var DefaultSearchColumns = []string{models.ColumnErrorSummary, models.ColumnErrorCategory, models.ColumnQuestion}

// Search returns the rows where any of the named columns contains query, ignoring case.
// Absent columns are skipped and missing cells never match. Rows keep dataset order.
func Search(ds *models.Dataset, query string, columns []string) *models.Dataset {
	if len(columns) == 0 {
		columns = DefaultSearchColumns
	}
	needle := strings.ToLower(query)

	var indexes []int
	for _, col := range columns {
		if idx := ds.ColumnIndex(col); idx >= 0 {
			indexes = append(indexes, idx)
		}
	}

	result := &models.Dataset{ID: ds.ID, Name: ds.Name, Columns: ds.Columns, Rows: [][]string{}}
	for i, row := range ds.Rows {
		for _, idx := range indexes {
			value, ok := ds.Cell(i, idx)
			if ok && strings.Contains(strings.ToLower(value), needle) {
				result.Rows = append(result.Rows, row)
				break
			}
		}
	}
	return result
}

// Questions returns the distinct non-missing question labels in ascending order
func Questions(ds *models.Dataset) []string {
	idx := ds.ColumnIndex(models.ColumnQuestion)
	if idx < 0 {
		return []string{}
	}
	return distinct(ds, idx)
}

func distinct(ds *models.Dataset, column int) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for i := range ds.Rows {
		value, ok := ds.Cell(i, column)
		if !ok {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}

// RequiredColumns lists every column referenced by at least one analysis
var RequiredColumns = []string{
	models.ColumnStudentID,
	models.ColumnQuestion,
	models.ColumnGrade,
	models.ColumnErrorSummary,
	models.ColumnErrorCategory,
}

// Summarize describes the dataset for the presentation layer
func Summarize(ds *models.Dataset) *models.DatasetSummary {
	summary := &models.DatasetSummary{
		ID:             ds.ID,
		Name:           ds.Name,
		Rows:           ds.Len(),
		Columns:        ds.Columns,
		Questions:      len(Questions(ds)),
		MissingColumns: ds.MissingColumns(RequiredColumns...),
		IsDefault:      ds.ID == models.DefaultDatasetID,
	}
	if idx := ds.ColumnIndex(models.ColumnStudentID); idx >= 0 {
		summary.Students = len(distinct(ds, idx))
	}
	return summary
}
