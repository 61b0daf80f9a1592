package analytics

import (
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

func newDataset(columns []string, rows ...[]string) *models.Dataset {
	return &models.Dataset{ID: "test", Name: "test.csv", Columns: columns, Rows: rows}
}

var responseColumns = []string{
	models.ColumnStudentID,
	models.ColumnQuestion,
	models.ColumnGrade,
	models.ColumnErrorSummary,
	models.ColumnErrorCategory,
}
