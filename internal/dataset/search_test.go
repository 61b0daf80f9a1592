package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

func TestSearch(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	t.Run("case insensitive across columns", func(t *testing.T) {
		result := Search(ds, "MISREAD", []string{"error_summary", "error_category"})
		require.Len(t, result.Rows, 2)
		assert.Equal(t, "Q2", result.Rows[0][1])
		assert.Equal(t, "Q1", result.Rows[1][1])
	})

	t.Run("row matching several columns appears once", func(t *testing.T) {
		result := Search(ds, "e", []string{"error_summary", "error_category"})
		assert.Len(t, result.Rows, 3)
	})

	t.Run("absent columns skipped", func(t *testing.T) {
		result := Search(ds, "Q1", []string{"nope", "question"})
		assert.Len(t, result.Rows, 2)
	})

	t.Run("no matches", func(t *testing.T) {
		result := Search(ds, "zzz", nil)
		assert.Empty(t, result.Rows)
		assert.Equal(t, ds.Columns, result.Columns)
	})

	t.Run("default columns", func(t *testing.T) {
		result := Search(ds, "comprehension", nil)
		assert.Len(t, result.Rows, 1)
	})

	t.Run("missing cells never match", func(t *testing.T) {
		withNA := &models.Dataset{Columns: []string{"error_summary"}, Rows: [][]string{{"NA"}, {"banana"}}}
		result := Search(withNA, "na", []string{"error_summary"})
		assert.Equal(t, [][]string{{"banana"}}, result.Rows)
	})
}

func TestQuestions(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{"question"},
		Rows:    [][]string{{"Q2"}, {"Q10"}, {"Q1"}, {"Q2"}, {""}, {"q1"}},
	}
	assert.Equal(t, []string{"Q1", "Q10", "Q2", "q1"}, Questions(ds))

	assert.Empty(t, Questions(&models.Dataset{Columns: []string{"grade"}}))
}

func TestSummarize(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	ds.ID = models.DefaultDatasetID

	summary := Summarize(ds)
	assert.Equal(t, 4, summary.Rows)
	assert.Equal(t, 2, summary.Questions)
	assert.Equal(t, 2, summary.Students)
	assert.Empty(t, summary.MissingColumns)
	assert.True(t, summary.IsDefault)

	partial := Summarize(&models.Dataset{ID: "x", Columns: []string{"question", "grade"}, Rows: [][]string{{"Q1", "1"}}})
	assert.Equal(t, []string{"student_id", "error_summary", "error_category"}, partial.MissingColumns)
	assert.Equal(t, 0, partial.Students)
	assert.False(t, partial.IsDefault)
}
