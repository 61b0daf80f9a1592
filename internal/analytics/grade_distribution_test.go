package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/feedback-analytics/internal/models"
)

func gradeRows(grades ...string) [][]string {
	rows := make([][]string, len(grades))
	for i, g := range grades {
		rows[i] = []string{"s", "Q1", g, "", ""}
	}
	return rows
}

func TestGradeDistribution(t *testing.T) {
	t.Run("histogram and summary", func(t *testing.T) {
		ds := newDataset(responseColumns, gradeRows("1", "0", "abc", "0.5", "", "1")...)

		report, err := GradeDistribution(ds, 2)
		require.NoError(t, err)

		assert.Equal(t, StatusOK, report.Status)
		assert.Equal(t, FilterStats{TotalRows: 6, KeptRows: 4, DroppedMissing: 1, DroppedNonNumeric: 1}, report.Filter)

		require.Len(t, report.Bins, 2)
		assert.Equal(t, HistogramBin{Lower: 0, Upper: 0.5, Count: 1}, report.Bins[0])
		assert.Equal(t, 0.5, report.Bins[1].Lower)
		assert.Equal(t, 1.0, report.Bins[1].Upper)
		assert.Equal(t, 3, report.Bins[1].Count)

		assert.Equal(t, 4, report.Summary.Count)
		assert.InDelta(t, 0.625, report.Summary.Mean, 1e-9)
		assert.InDelta(t, 0.75, report.Summary.Median, 1e-9)
		assert.InDelta(t, 0.4787, report.Summary.StdDev, 1e-4)
		assert.Equal(t, 0.0, report.Summary.Min)
		assert.Equal(t, 1.0, report.Summary.Max)
	})

	t.Run("default bins", func(t *testing.T) {
		ds := newDataset(responseColumns, gradeRows("0", "10", "5", "3")...)

		report, err := GradeDistribution(ds, 0)
		require.NoError(t, err)

		require.Len(t, report.Bins, DefaultBins)
		total := 0
		for _, b := range report.Bins {
			total += b.Count
		}
		assert.Equal(t, 4, total)
		assert.Equal(t, 1, report.Bins[DefaultBins-1].Count)
		assert.Equal(t, 4.0, report.Summary.Median)
	})

	t.Run("single value", func(t *testing.T) {
		ds := newDataset(responseColumns, gradeRows("2")...)

		report, err := GradeDistribution(ds, 10)
		require.NoError(t, err)

		assert.Equal(t, []HistogramBin{{Lower: 2, Upper: 2, Count: 1}}, report.Bins)
		assert.Equal(t, 0.0, report.Summary.StdDev)

		_, err = json.Marshal(report)
		assert.NoError(t, err)
	})

	t.Run("no numeric grades", func(t *testing.T) {
		ds := newDataset(responseColumns, gradeRows("x", "")...)

		report, err := GradeDistribution(ds, 10)
		require.NoError(t, err)
		assert.Equal(t, StatusNoGradeData, report.Status)
		assert.Empty(t, report.Bins)
	})

	t.Run("missing grade column", func(t *testing.T) {
		_, err := GradeDistribution(newDataset([]string{models.ColumnQuestion}), 10)
		assert.True(t, IsMissingColumns(err))
	})
}
