package walker

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/FranLegon/drive-cleanup/internal/api"
	"github.com/FranLegon/drive-cleanup/internal/api/apitest"
	"github.com/FranLegon/drive-cleanup/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func scan(t *testing.T, fake *apitest.Fake, filter Filter, root string) *model.ScanResult {
	t.Helper()
	w, err := New(fake, filter)
	require.NoError(t, err)
	result, err := w.Scan(context.Background(), root)
	require.NoError(t, err)
	return result
}

func titlesAndReasons(files []model.FileRecord) map[string]model.Reason {
	out := make(map[string]model.Reason, len(files))
	for _, f := range files {
		out[f.ID] = f.Reason
	}
	return out
}

func TestScanReportScenario(t *testing.T) {
	filter := Filter{Start: day(t, "2024-03-01"), End: day(t, "2024-03-31")}

	t.Run("out-of-range copy listed first", func(t *testing.T) {
		fake := apitest.NewFake()
		fake.AddRoot("root", "Shared")
		fake.AddFolder("root", "a", "A")
		fake.AddFile("root", "old", "Report.pdf", "2023-01-05T09:00:00.000Z")
		fake.AddFile("root", "new", "Report.pdf", "2024-03-10T09:00:00.000Z")

		result := scan(t, fake, filter, "root")

		require.Len(t, result.Files, 1)
		assert.Equal(t, "new", result.Files[0].ID)
		assert.Equal(t, model.ReasonDuplicateTitle, result.Files[0].Reason)
		assert.Equal(t, []string{"A"}, result.EmptyFolders)
	})

	t.Run("in-range copy listed first", func(t *testing.T) {
		fake := apitest.NewFake()
		fake.AddRoot("root", "Shared")
		fake.AddFolder("root", "a", "A")
		fake.AddFile("root", "new", "Report.pdf", "2024-03-10T09:00:00.000Z")
		fake.AddFile("root", "old", "Report.pdf", "2023-01-05T09:00:00.000Z")

		result := scan(t, fake, filter, "root")

		require.Len(t, result.Files, 1)
		assert.Equal(t, "new", result.Files[0].ID)
		assert.Equal(t, model.ReasonNone, result.Files[0].Reason)
		assert.Equal(t, []string{"A"}, result.EmptyFolders)
	})
}

func TestScanVisitsEachFolderOnceOnCycles(t *testing.T) {
	fake := apitest.NewFake()
	fake.AddRoot("root", "Shared")
	fake.AddFolder("root", "a", "A")
	fake.AddFolder("a", "b", "B")
	fake.AddFile("b", "f1", "x.txt", "2024-01-01T00:00:00Z")
	fake.LinkFolder("b", "a")
	fake.LinkFolder("b", "root")
	fake.LinkFolder("root", "b")

	result := scan(t, fake, Filter{}, "root")

	assert.ElementsMatch(t, []string{"root", "a", "b"}, fake.FirstPageLists)
	assert.Len(t, fake.FirstPageLists, 3)
	assert.Equal(t, 3, result.Stats.FoldersVisited)
	require.Len(t, result.Files, 1)
	assert.Empty(t, result.EmptyFolders)
}

func TestScanMarksAllButFirstSeenAsDuplicate(t *testing.T) {
	fake := apitest.NewFake()
	fake.AddRoot("root", "Shared")
	fake.AddFolder("root", "a", "A")
	fake.AddFile("a", "first", "notes.txt", "2024-01-01T00:00:00Z")
	fake.AddFile("root", "second", "notes.txt", "2024-01-02T00:00:00Z")
	fake.AddFolder("root", "b", "B")
	fake.AddFile("b", "third", "notes.txt", "2024-01-03T00:00:00Z")
	fake.AddFile("b", "other", "unique.txt", "2024-01-03T00:00:00Z")

	result := scan(t, fake, Filter{}, "root")

	assert.Equal(t, map[string]model.Reason{
		"first":  model.ReasonNone,
		"second": model.ReasonDuplicateTitle,
		"third":  model.ReasonDuplicateTitle,
		"other":  model.ReasonNone,
	}, titlesAndReasons(result.Files))

	// depth-first: A's contents come before root's own second file
	assert.Equal(t, "first", result.Files[0].ID)
	assert.Equal(t, "second", result.Files[1].ID)
}

func TestScanPaginates(t *testing.T) {
	fake := apitest.NewFake()
	fake.PageSize = 2
	fake.AddRoot("root", "Shared")
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		fake.AddFile("root", id, "file"+id+".txt", "2024-05-01T12:00:00.123Z")
	}

	result := scan(t, fake, Filter{}, "root")

	assert.Len(t, result.Files, 5)
	assert.Equal(t, "2024-05-01T12:00:00.123Z", result.Files[0].ModifiedRaw)
	assert.Empty(t, result.EmptyFolders)
}

func TestScanListErrorAbortsOnlyThatFolder(t *testing.T) {
	fake := apitest.NewFake()
	fake.PageSize = 1
	fake.AddRoot("root", "Shared")
	fake.AddFolder("root", "b", "B")
	fake.AddFile("b", "b1", "b1.txt", "2024-01-01T00:00:00Z")
	fake.AddFile("b", "b2", "b2.txt", "2024-01-01T00:00:00Z")
	fake.AddFolder("root", "c", "C")
	fake.AddFile("c", "c1", "c1.txt", "2024-01-01T00:00:00Z")
	fake.ListErrors["b#1"] = api.NewError(http.StatusServiceUnavailable, "backend error")

	result := scan(t, fake, Filter{}, "root")

	ids := titlesAndReasons(result.Files)
	assert.Contains(t, ids, "b1")
	assert.NotContains(t, ids, "b2")
	assert.Contains(t, ids, "c1")
	assert.Equal(t, 1, result.Stats.ListErrors)
	assert.Empty(t, result.EmptyFolders)
}

func TestScanFailedFirstPageIsNotEmptyFolder(t *testing.T) {
	fake := apitest.NewFake()
	fake.AddRoot("root", "Shared")
	fake.AddFolder("root", "a", "A")
	fake.ListErrors["a#0"] = api.NewError(http.StatusForbidden, "no access")

	result := scan(t, fake, Filter{}, "root")

	assert.Empty(t, result.EmptyFolders)
	assert.Equal(t, 1, result.Stats.ListErrors)
}

func TestScanFolderNameFallsBackToID(t *testing.T) {
	fake := apitest.NewFake()
	fake.AddRoot("root", "Shared")
	fake.AddFolder("root", "a", "A")
	fake.NameErrors["a"] = errors.New("metadata unavailable")

	result := scan(t, fake, Filter{}, "root")

	assert.Equal(t, []string{"a"}, result.EmptyFolders)
}

func TestScanSkipsMalformedTimestamps(t *testing.T) {
	fake := apitest.NewFake()
	fake.AddRoot("root", "Shared")
	fake.AddFile("root", "bad", "Report.pdf", "yesterday")
	fake.AddFile("root", "blank", "Report.pdf", "")
	fake.AddFile("root", "good", "Report.pdf", "2024-03-10T09:00:00.000Z")

	result := scan(t, fake, Filter{}, "root")

	require.Len(t, result.Files, 1)
	assert.Equal(t, "good", result.Files[0].ID)
	assert.Equal(t, model.ReasonNone, result.Files[0].Reason)
	assert.Equal(t, 2, result.Stats.FilesSkipped)
	assert.Equal(t, 1, result.Stats.FilesSeen)
}

func TestScanKeywordMode(t *testing.T) {
	fake := apitest.NewFake()
	fake.AddRoot("root", "Shared")
	fake.AddFile("root", "1", "Q1 REPORT.pdf", "2024-01-01T00:00:00Z")
	fake.AddFile("root", "2", "invoice-0042.pdf", "2024-01-01T00:00:00Z")
	fake.AddFile("root", "3", "notes.txt", "2024-01-01T00:00:00Z")

	result := scan(t, fake, Filter{Mode: ModeKeywords, Keywords: ParseKeywords(" report , invoice-\\d+ ,")}, "root")
	ids := titlesAndReasons(result.Files)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "1")
	assert.Contains(t, ids, "2")

	all := scan(t, fake, Filter{Mode: ModeKeywords}, "root")
	assert.Len(t, all.Files, 3)
}

func TestScanStaleCutoff(t *testing.T) {
	fake := apitest.NewFake()
	fake.AddRoot("root", "Shared")
	fake.AddFile("root", "old", "old.doc", "2019-06-01T00:00:00Z")
	fake.AddFile("root", "fresh", "fresh.doc", "2024-06-01T00:00:00Z")
	fake.AddFile("root", "olddup", "fresh.doc", "2019-06-01T00:00:00Z")

	result := scan(t, fake, Filter{StaleBefore: day(t, "2020-01-01")}, "root")

	assert.Equal(t, map[string]model.Reason{
		"old":    model.ReasonStale,
		"fresh":  model.ReasonNone,
		"olddup": model.ReasonDuplicateTitle,
	}, titlesAndReasons(result.Files))

	flagged := scan(t, fake, Filter{StaleBefore: day(t, "2020-01-01"), FlaggedOnly: true}, "root")
	assert.Len(t, flagged.Files, 2)
}

func TestScanCancelled(t *testing.T) {
	fake := apitest.NewFake()
	fake.AddRoot("root", "Shared")

	w, err := New(fake, Filter{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Scan(ctx, "root")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsBadFilters(t *testing.T) {
	_, err := New(apitest.NewFake(), Filter{Mode: ModeKeywords, Keywords: []string{"(unclosed"}})
	assert.Error(t, err)

	_, err = New(apitest.NewFake(), Filter{Start: day(t, "2024-02-01"), End: day(t, "2024-01-01")})
	assert.Error(t, err)
}

func TestScanEmptyRoot(t *testing.T) {
	fake := apitest.NewFake()
	fake.AddRoot("root", "Shared")

	result := scan(t, fake, Filter{}, "root")

	assert.Empty(t, result.Files)
	assert.Equal(t, []string{"Shared"}, result.EmptyFolders)
	assert.NotEmpty(t, result.ScanID)
	assert.Equal(t, "root", result.RootID)
}

func TestScanStopsWhenUnauthorized(t *testing.T) {
	fake := apitest.NewFake()
	fake.AddRoot("root", "Shared")
	fake.AddFolder("root", "a", "A")
	fake.AddFolder("root", "b", "B")
	fake.ListErrors["a#0"] = api.NewError(http.StatusUnauthorized, "invalid credentials")

	w, err := New(fake, Filter{})
	require.NoError(t, err)

	result, err := w.Scan(context.Background(), "root")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Nil(t, result)
	assert.NotContains(t, fake.FirstPageLists, "b")
}
