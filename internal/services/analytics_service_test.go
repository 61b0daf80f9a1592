package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/feedback-analytics/internal/analytics"
	"github.com/SAP-F-2025/feedback-analytics/internal/events"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
)

func TestAnalyticsService_DifficultyDiscrimination(t *testing.T) {
	f := newFixture(t)
	service := f.analytics()
	sess := f.newSession(t)
	ctx := context.Background()

	report, err := service.GetDifficultyDiscrimination(ctx, sess)
	require.NoError(t, err)

	require.Len(t, report.Items, 2)
	assert.Equal(t, 3, report.StudentCount)
	assert.Equal(t, 1, report.GroupSize)
	assert.Equal(t, []string{"s3"}, report.UpperGroup)
	assert.Equal(t, []string{"s2"}, report.LowerGroup)

	q1 := report.Items[0]
	assert.Equal(t, "Q1", q1.Question)
	assert.InDelta(t, 2.0/3.0, q1.DifficultyIndex, 1e-9)
	assert.Equal(t, 1.0, q1.DiscriminationIndex)

	q2 := report.Items[1]
	assert.Equal(t, "Q2", q2.Question)
	assert.Equal(t, 0.0, q2.DiscriminationIndex)
}

func TestAnalyticsService_Memoization(t *testing.T) {
	f := newFixture(t)
	service := f.analytics()
	sess := f.newSession(t)
	ctx := context.Background()

	first, err := service.GetTopErrorTypes(ctx, sess, "Q1", 5)
	require.NoError(t, err)
	second, err := service.GetTopErrorTypes(ctx, sess, "Q1", 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	published := f.publisher.EventsOfType(events.EventAnalysisCompleted)
	require.Len(t, published, 2)

	firstEvent := published[0].Data.(events.AnalysisCompletedEvent)
	secondEvent := published[1].Data.(events.AnalysisCompletedEvent)
	assert.False(t, firstEvent.Cached)
	assert.True(t, secondEvent.Cached)
	assert.Equal(t, AnalysisTopErrorTypes, secondEvent.Analysis)
	assert.Equal(t, map[string]string{"question": "Q1", "n": "5"}, secondEvent.Parameters)
	assert.Equal(t, "ok", secondEvent.Status)

	t.Run("different parameters are computed separately", func(t *testing.T) {
		f.publisher.ClearEvents()
		_, err := service.GetTopErrorTypes(ctx, sess, "Q1", 1)
		require.NoError(t, err)

		published := f.publisher.EventsOfType(events.EventAnalysisCompleted)
		require.Len(t, published, 1)
		assert.False(t, published[0].Data.(events.AnalysisCompletedEvent).Cached)
	})

	t.Run("a new upload is not served from the old results", func(t *testing.T) {
		_, err := f.datasets.Upload(ctx, sess, "other.csv", strings.NewReader(
			"student_id,question,grade,error_summary,error_category\nx,Q1,1,typo,Encoding\n"))
		require.NoError(t, err)

		report, err := service.GetTopErrorTypes(ctx, sess, "Q1", 5)
		require.NoError(t, err)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, "typo", report.Errors[0].Tag)
	})
}

func TestAnalyticsService_TopErrorTypes(t *testing.T) {
	f := newFixture(t)
	service := f.analytics()
	sess := f.newSession(t)
	ctx := context.Background()

	t.Run("ties keep first-seen order", func(t *testing.T) {
		report, err := service.GetTopErrorTypes(ctx, sess, "Q1", 0)
		require.NoError(t, err)

		assert.Equal(t, analytics.StatusOK, report.Status)
		assert.Equal(t, []analytics.ErrorFrequency{
			{Tag: "sign error", Frequency: 2, Percentage: 50},
			{Tag: "arithmetic", Frequency: 2, Percentage: 50},
		}, report.Errors)
	})

	t.Run("question with no error summaries", func(t *testing.T) {
		report, err := service.GetTopErrorTypes(ctx, sess, "Q2", 3)
		require.NoError(t, err)
		assert.Equal(t, analytics.StatusOK, report.Status)
		assert.Len(t, report.Errors, 1)
	})

	t.Run("unknown question is informational", func(t *testing.T) {
		report, err := service.GetTopErrorTypes(ctx, sess, "Q9", 3)
		require.NoError(t, err)
		assert.Equal(t, analytics.StatusNoDataForQuestion, report.Status)
		assert.Empty(t, report.Errors)
	})

	t.Run("blank question", func(t *testing.T) {
		_, err := service.GetTopErrorTypes(ctx, sess, " ", 3)
		assert.True(t, IsValidation(err))
	})

	t.Run("limit above maximum", func(t *testing.T) {
		_, err := service.GetTopErrorTypes(ctx, sess, "Q1", MaxTopN+1)
		assert.True(t, IsValidation(err))
	})
}

func TestAnalyticsService_MissingColumns(t *testing.T) {
	f := newFixture(t)
	service := f.analytics()
	sess := f.newSession(t)
	ctx := context.Background()

	_, err := f.datasets.Upload(ctx, sess, "grades.csv", strings.NewReader(gradesOnlyCSV))
	require.NoError(t, err)

	_, err = service.GetTopErrorTypes(ctx, sess, "Q1", 3)
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))

	_, err = service.GetErrorCategoryBreakdown(ctx, sess, "Q1")
	assert.True(t, IsPrecondition(err))

	_, err = service.GetDifficultyDiscrimination(ctx, sess)
	assert.NoError(t, err)

	assert.Len(t, f.publisher.EventsOfType(events.EventAnalysisCompleted), 1)
}

func TestAnalyticsService_ErrorCategoryBreakdown(t *testing.T) {
	f := newFixture(t)
	service := f.analytics()
	sess := f.newSession(t)

	report, err := service.GetErrorCategoryBreakdown(context.Background(), sess, "Q2")
	require.NoError(t, err)

	assert.Equal(t, analytics.StatusOK, report.Status)
	require.Len(t, report.Categories, 1)
	assert.Equal(t, "reading", report.Categories[0].Label)
	assert.Equal(t, 100.0, report.Categories[0].Percentage)
	assert.True(t, report.Categories[0].Known)
}

func TestAnalyticsService_GradeDistribution(t *testing.T) {
	f := newFixture(t)
	service := f.analytics()
	sess := f.newSession(t)
	ctx := context.Background()

	report, err := service.GetGradeDistribution(ctx, sess, 0)
	require.NoError(t, err)
	assert.Equal(t, analytics.StatusOK, report.Status)
	assert.Equal(t, 6, report.Summary.Count)

	var counted int
	for _, bin := range report.Bins {
		counted += bin.Count
	}
	assert.Equal(t, 6, counted)

	_, err = service.GetGradeDistribution(ctx, sess, MaxBins+1)
	assert.True(t, IsValidation(err))

	_, err = service.GetGradeDistribution(ctx, sess, -1)
	assert.True(t, IsValidation(err))
}

func TestAnalyticsService_ExportWorkbook(t *testing.T) {
	f := newFixture(t)
	service := f.analytics()
	sess := f.newSession(t)
	ctx := context.Background()

	t.Run("items only", func(t *testing.T) {
		data, err := service.ExportWorkbook(ctx, sess, "", 0)
		require.NoError(t, err)

		wb, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer wb.Close()

		assert.Equal(t, []string{SheetItems}, wb.GetSheetList())
		value, err := wb.GetCellValue(SheetItems, "A2")
		require.NoError(t, err)
		assert.Equal(t, "Q1", value)
	})

	t.Run("with question", func(t *testing.T) {
		data, err := service.ExportWorkbook(ctx, sess, "Q1", 5)
		require.NoError(t, err)

		wb, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer wb.Close()

		assert.Equal(t, []string{SheetItems, SheetErrorTypes, SheetCategories}, wb.GetSheetList())
		value, err := wb.GetCellValue(SheetErrorTypes, "A2")
		require.NoError(t, err)
		assert.Equal(t, "sign error", value)
	})

	t.Run("unknown question writes the status message", func(t *testing.T) {
		data, err := service.ExportWorkbook(ctx, sess, "Q9", 5)
		require.NoError(t, err)

		wb, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer wb.Close()

		value, err := wb.GetCellValue(SheetCategories, "A2")
		require.NoError(t, err)
		assert.Equal(t, analytics.StatusNoDataForQuestion.Message(), value)
	})
}

func TestParamSegments(t *testing.T) {
	t.Run("fixed order", func(t *testing.T) {
		segments := paramSegments(map[string]string{"n": "10", "question": "Q1", "bins": "5"})
		assert.Equal(t, []string{"bins=5", "question=Q1", "n=10"}, segments)
	})

	t.Run("labels cannot forge other segments", func(t *testing.T) {
		forged := paramSegments(map[string]string{"question": "Q1:n=5", "n": "10"})
		assert.Equal(t, []string{"question=Q1%3An%3D5", "n=10"}, forged)

		plain := paramSegments(map[string]string{"question": "Q1", "n": "5"})
		assert.NotEqual(t,
			session.AnalysisKey("d1", AnalysisTopErrorTypes, forged...),
			session.AnalysisKey("d1", AnalysisTopErrorTypes, plain...))
	})

	t.Run("wildcards are escaped", func(t *testing.T) {
		segments := paramSegments(map[string]string{"question": "Q*"})
		assert.Equal(t, []string{"question=Q%2A"}, segments)
	})
}
