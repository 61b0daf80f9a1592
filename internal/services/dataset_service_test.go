package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/feedback-analytics/internal/events"
	"github.com/SAP-F-2025/feedback-analytics/internal/models"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
)

func TestDatasetService_DefaultDataset(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t)
	ctx := context.Background()

	summary, err := f.datasets.Current(ctx, sess)
	require.NoError(t, err)
	assert.True(t, summary.IsDefault)
	assert.Equal(t, 6, summary.Rows)
	assert.Equal(t, 2, summary.Questions)
	assert.Equal(t, 3, summary.Students)
	assert.Empty(t, summary.MissingColumns)

	questions, err := f.datasets.Questions(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "Q2"}, questions)
}

func TestDatasetService_NoDefaultDataset(t *testing.T) {
	f := newFixtureWithLoader(t, nil)
	sess := f.newSession(t)

	_, err := f.datasets.Current(context.Background(), sess)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDataset)
	assert.True(t, IsNotFound(err))
}

func TestDatasetService_Upload(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t)
	ctx := context.Background()

	summary, err := f.datasets.Upload(ctx, sess, "grades.csv", strings.NewReader(gradesOnlyCSV))
	require.NoError(t, err)

	assert.Equal(t, "grades.csv", summary.Name)
	assert.Equal(t, 2, summary.Rows)
	assert.False(t, summary.IsDefault)
	assert.Equal(t, []string{"error_summary", "error_category"}, summary.MissingColumns)
	assert.Equal(t, summary.ID, sess.DatasetID)

	t.Run("session is persisted", func(t *testing.T) {
		stored, err := f.sessions.Resolve(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, summary.ID, stored.DatasetID)
	})

	t.Run("event is published", func(t *testing.T) {
		published := f.publisher.EventsOfType(events.EventDatasetUploaded)
		require.Len(t, published, 1)
		data, ok := published[0].Data.(events.DatasetUploadedEvent)
		require.True(t, ok)
		assert.Equal(t, sess.ID, data.SessionID)
		assert.Equal(t, 2, data.Rows)
	})

	t.Run("replacing an upload drops the previous dataset", func(t *testing.T) {
		first := sess.DatasetID
		_, err := f.datasets.Upload(ctx, sess, "again.csv", strings.NewReader(gradesOnlyCSV))
		require.NoError(t, err)
		assert.NotEqual(t, first, sess.DatasetID)

		_, err = f.sessions.Dataset(ctx, first)
		assert.ErrorIs(t, err, session.ErrDatasetNotFound)
	})
}

func TestDatasetService_UploadRejected(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		maxBytes int64
		check    func(t *testing.T, err error)
	}{
		{
			name:     "unsupported extension",
			filename: "grades.txt",
			content:  gradesOnlyCSV,
			check: func(t *testing.T, err error) {
				var ve ValidationErrors
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "file", ve[0].Field)
			},
		},
		{
			name:     "legacy excel",
			filename: "grades.xls",
			content:  gradesOnlyCSV,
			check: func(t *testing.T, err error) {
				assert.True(t, IsValidation(err))
			},
		},
		{
			name:     "empty file",
			filename: "grades.csv",
			content:  "",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyDataset)
			},
		},
		{
			name:     "header only",
			filename: "grades.csv",
			content:  "student_id,question,grade\n",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyDataset)
			},
		},
		{
			name:     "too large",
			filename: "grades.csv",
			content:  gradesOnlyCSV,
			maxBytes: 10,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrDatasetTooLarge)
				assert.True(t, IsValidation(err))
			},
		},
		{
			name:     "malformed csv",
			filename: "grades.csv",
			content:  "a,b\n\"unterminated,1\n",
			check: func(t *testing.T, err error) {
				assert.True(t, IsValidation(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.maxBytes > 0 {
				f.datasets = NewDatasetService(f.sessions, f.publisher, f.metrics, f.validator, f.logger, tt.maxBytes)
			}
			sess := f.newSession(t)

			_, err := f.datasets.Upload(context.Background(), sess, tt.filename, strings.NewReader(tt.content))
			require.Error(t, err)
			tt.check(t, err)

			assert.Equal(t, models.DefaultDatasetID, sess.DatasetID)
			assert.Empty(t, f.publisher.GetPublishedEvents())
		})
	}
}

func TestDatasetService_Reset(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t)
	ctx := context.Background()

	uploaded, err := f.datasets.Upload(ctx, sess, "grades.csv", strings.NewReader(gradesOnlyCSV))
	require.NoError(t, err)

	summary, err := f.datasets.Reset(ctx, sess)
	require.NoError(t, err)
	assert.True(t, summary.IsDefault)
	assert.Equal(t, models.DefaultDatasetID, sess.DatasetID)

	_, err = f.sessions.Dataset(ctx, uploaded.ID)
	assert.ErrorIs(t, err, session.ErrDatasetNotFound)
}

func TestDatasetService_ExpiredUpload(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t)
	sess.DatasetID = "gone"

	_, err := f.datasets.Current(context.Background(), sess)
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	assert.True(t, IsNotFound(err))
}

func TestDatasetService_Search(t *testing.T) {
	f := newFixture(t)
	sess := f.newSession(t)
	ctx := context.Background()

	t.Run("matches default columns case-insensitively", func(t *testing.T) {
		result, err := f.datasets.Search(ctx, sess, "SIGN", nil)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Matches)
		assert.Equal(t, "s1", result.Rows[0][0])
		assert.Equal(t, "s2", result.Rows[1][0])
		assert.Equal(t, []string{"error_summary", "error_category", "question"}, result.Columns)
	})

	t.Run("restricts to requested columns", func(t *testing.T) {
		result, err := f.datasets.Search(ctx, sess, "reading", []string{"error_summary"})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Matches)
		assert.Empty(t, result.Rows)
	})

	t.Run("no searchable column", func(t *testing.T) {
		_, err := f.datasets.Search(ctx, sess, "sign", []string{"comments"})
		require.Error(t, err)
		assert.True(t, IsBusinessRule(err))
	})

	t.Run("blank query", func(t *testing.T) {
		_, err := f.datasets.Search(ctx, sess, "   ", nil)
		assert.True(t, IsValidation(err))
	})
}
