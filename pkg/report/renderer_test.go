package report_test

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ignatij/logreport/pkg/models"
	"github.com/ignatij/logreport/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// textPos matches the position and text of every cell written to the page.
var textPos = regexp.MustCompile(`BT (-?[0-9.]+) (-?[0-9.]+) Td \(((?:[^()\\]|\\.)*)\)Tj`)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func inspectable() *report.Renderer {
	return report.NewRenderer(report.WithClock(fixedClock), report.WithCompression(false))
}

func shown(text string) []byte {
	return []byte("(" + text + ")Tj")
}

func TestRender(t *testing.T) {
	t.Run("EmptyListStillProducesDocument", func(t *testing.T) {
		out, err := inspectable().Render(nil)
		require.NoError(t, err)
		assert.NotEmpty(t, out)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
		// "Response Time" wraps inside its narrow column.
		for _, label := range []string{"API Name", "Status", "Response", "Error", "Timestamp"} {
			assert.True(t, bytes.Contains(out, shown(label)), "missing column %q", label)
		}
		assert.True(t, bytes.Contains(out, shown("API Logs Report")))
		assert.True(t, bytes.Contains(out, shown("Generated on: 2024-05-06 07:08:09")))
	})

	t.Run("AllFieldsAbsent", func(t *testing.T) {
		out, err := inspectable().Render([]models.LogRecord{{ID: "only-id"}})
		require.NoError(t, err)
		assert.Equal(t, 5, bytes.Count(out, shown("-")))
	})

	t.Run("RowsKeepInputOrder", func(t *testing.T) {
		records := []models.LogRecord{
			{ID: "1", APIName: models.StringPtr("zeta-service"), Timestamp: models.StringPtr("2024-01-01T10:00:00")},
			{ID: "2", APIName: models.StringPtr("alpha-service"), Timestamp: models.StringPtr("2024-01-02T10:00:00")},
		}
		out, err := inspectable().Render(records)
		require.NoError(t, err)

		first := bytes.Index(out, shown("zeta-service"))
		second := bytes.Index(out, shown("alpha-service"))
		assert.Greater(t, first, 0)
		assert.Greater(t, second, first)
	})

	t.Run("SortedInputPutsNewestFirst", func(t *testing.T) {
		records := []models.LogRecord{
			{ID: "1", APIName: models.StringPtr("X-api"), Timestamp: models.StringPtr("2024-01-01T10:00:00")},
			{ID: "2", APIName: models.StringPtr("Y-api"), Timestamp: models.StringPtr("2024-01-02T10:00:00")},
		}
		models.SortByTimestampDesc(records)
		out, err := inspectable().Render(records)
		require.NoError(t, err)
		assert.Less(t, bytes.Index(out, shown("Y-api")), bytes.Index(out, shown("X-api")))
	})

	t.Run("LongTablesSpanPages", func(t *testing.T) {
		records := make([]models.LogRecord, 0, 120)
		for i := 0; i < 120; i++ {
			records = append(records, models.LogRecord{
				ID:      fmt.Sprint(i),
				APIName: models.StringPtr(fmt.Sprintf("row-%03d", i)),
				Error:   models.StringPtr("upstream timed out while waiting for the payment provider to answer the capture request"),
			})
		}
		out, err := inspectable().Render(records)
		require.NoError(t, err)
		assert.True(t, bytes.Contains(out, shown("row-119")))
		// The column header repeats on every page.
		assert.Greater(t, bytes.Count(out, shown("API Name")), 1)
	})

	t.Run("DeterministicWithFixedClock", func(t *testing.T) {
		records := []models.LogRecord{
			{ID: "1", APIName: models.StringPtr("users"), Status: models.StringPtr("200"), ResponseTime: models.StringPtr("12")},
		}
		r := report.NewRenderer(report.WithClock(fixedClock))
		a, err := r.Render(records)
		require.NoError(t, err)
		b, err := r.Render(records)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(a, b))

		later := report.NewRenderer(report.WithClock(func() time.Time { return fixedNow.Add(time.Hour) }))
		c, err := later.Render(records)
		require.NoError(t, err)
		assert.False(t, bytes.Equal(a, c))
	})
	t.Run("OversizedRowContinuesOnNextPages", func(t *testing.T) {
		stack := strings.Repeat("word ", 1500) + "TAILMARKER"
		records := []models.LogRecord{
			{ID: "1", APIName: models.StringPtr("before")},
			{ID: "2", APIName: models.StringPtr("payments"), Error: models.StringPtr(stack)},
			{ID: "3", APIName: models.StringPtr("after")},
		}
		out, err := inspectable().Render(records)
		require.NoError(t, err)

		require.True(t, bytes.Contains(out, shown("TAILMARKER")))
		words := 0
		for _, m := range textPos.FindAllSubmatch(out, -1) {
			y, err := strconv.ParseFloat(string(m[2]), 64)
			require.NoError(t, err)
			assert.Greater(t, y, 25.0, "text %q placed below the page margin", m[3])
			words += bytes.Count(m[3], []byte("word"))
		}
		assert.Equal(t, 1500, words)
		assert.Greater(t, bytes.Count(out, shown("API Name")), 2)
		assert.Less(t, bytes.Index(out, shown("TAILMARKER")), bytes.Index(out, shown("after")))
	})

	t.Run("LongUnbrokenValueIsSplitInLinearTime", func(t *testing.T) {
		value := strings.Repeat("x", 20000)
		start := time.Now()
		out, err := inspectable().Render([]models.LogRecord{{ID: "1", Error: models.StringPtr(value)}})
		elapsed := time.Since(start)
		require.NoError(t, err)
		assert.Less(t, elapsed, 5*time.Second)

		xs := 0
		for _, m := range textPos.FindAllSubmatch(out, -1) {
			if len(bytes.Trim(m[3], "x")) == 0 {
				xs += len(m[3])
			}
		}
		assert.Equal(t, len(value), xs)
	})

	t.Run("TextOutsideWindows1252IsReplaced", func(t *testing.T) {
		out, err := inspectable().Render([]models.LogRecord{{ID: "1", APIName: models.StringPtr("платежи-api")}})
		require.NoError(t, err)
		assert.True(t, bytes.Contains(out, shown(".......-api")))
	})
}
