package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebinsua/diffscope/pkg/models"
)

// fakeContent serves file content keyed by revision then path. A missing
// entry is the empty string, matching the provider contract.
type fakeContent struct {
	files map[string]map[string]string
	err   error
}

func (f *fakeContent) FileContents(_ context.Context, path, ref string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.files[ref][path], nil
}

type fakeRawDiff struct {
	text  string
	err   error
	delay time.Duration
	calls int32
}

func (f *fakeRawDiff) RawDiff(context.Context, string, string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.text, f.err
}

type fakeStructured struct {
	diffs []models.FileDiff
	calls int32
}

func (f *fakeStructured) StructuredDiff(context.Context, string, string) ([]models.FileDiff, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.diffs, nil
}

var testRevs = models.RevisionPair{Base: "abc123", Head: "def456"}

const configDiff = `diff --git a/config.json b/config.json
--- a/config.json
+++ b/config.json
@@ -1,4 +1,4 @@
 {
-  "retries": 2,
+  "retries": 5,
   "name": "svc"
 }
`

func newTestSession(t *testing.T, snapshot models.RepositorySnapshot, src Sources, opts ...Option) *Session {
	t.Helper()
	s, err := New(snapshot, testRevs, src, opts...)
	require.NoError(t, err)
	return s
}

func TestNewValidatesSources(t *testing.T) {
	_, err := New(models.RepositorySnapshot{}, testRevs, Sources{})
	assert.Error(t, err)

	_, err = New(models.RepositorySnapshot{}, testRevs, Sources{Content: &fakeContent{}})
	assert.Error(t, err)

	_, err = New(models.RepositorySnapshot{}, testRevs, Sources{
		Content: &fakeContent{},
		RawDiff: &fakeRawDiff{},
	})
	assert.NoError(t, err)
}

func TestStructuredDiffForFile(t *testing.T) {
	raw := &fakeRawDiff{text: configDiff}
	s := newTestSession(t,
		models.RepositorySnapshot{ModifiedFiles: []string{"config.json"}},
		Sources{Content: &fakeContent{}, RawDiff: raw},
	)

	entry, err := s.StructuredDiffForFile(context.Background(), "config.json")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "config.json", entry.ToPath)
	require.Len(t, entry.Hunks, 1)

	// a file with no diff is absent, not an error
	entry, err = s.StructuredDiffForFile(context.Background(), "untouched.go")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStructuredDiffMatchesRenames(t *testing.T) {
	structured := &fakeStructured{diffs: []models.FileDiff{{
		FromPath:  "old/util.go",
		ToPath:    "new/util.go",
		IsRenamed: true,
	}}}
	s := newTestSession(t, models.RepositorySnapshot{},
		Sources{Content: &fakeContent{}, StructuredDiff: structured})

	for _, name := range []string{"old/util.go", "new/util.go"} {
		entry, err := s.StructuredDiffForFile(context.Background(), name)
		require.NoError(t, err)
		require.NotNil(t, entry, name)
		assert.True(t, entry.IsRenamed)
	}
}

func TestResolveFetchesOnce(t *testing.T) {
	raw := &fakeRawDiff{text: configDiff}
	s := newTestSession(t, models.RepositorySnapshot{},
		Sources{Content: &fakeContent{}, RawDiff: raw})

	first, err := s.StructuredDiffForFile(context.Background(), "config.json")
	require.NoError(t, err)
	second, err := s.StructuredDiffForFile(context.Background(), "config.json")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&raw.calls))
}

func TestResolveCoalescesConcurrentCallers(t *testing.T) {
	raw := &fakeRawDiff{text: configDiff, delay: 50 * time.Millisecond}
	s := newTestSession(t, models.RepositorySnapshot{},
		Sources{Content: &fakeContent{}, RawDiff: raw})

	var wg sync.WaitGroup
	for _, name := range []string{"config.json", "other.json", "config.json", "untouched.go"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := s.StructuredDiffForFile(context.Background(), name)
			assert.NoError(t, err)
		}(name)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&raw.calls))
}

func TestResolveMemoizesFailure(t *testing.T) {
	raw := &fakeRawDiff{err: errors.New("boom")}
	s := newTestSession(t, models.RepositorySnapshot{},
		Sources{Content: &fakeContent{}, RawDiff: raw})

	_, err := s.StructuredDiffForFile(context.Background(), "config.json")
	require.Error(t, err)
	_, err = s.StructuredDiffForFile(context.Background(), "config.json")
	require.Error(t, err)

	// the failure is cached with the resolution; no second fetch happens
	assert.EqualValues(t, 1, atomic.LoadInt32(&raw.calls))
}

func TestStructuredProviderTakesPrecedence(t *testing.T) {
	raw := &fakeRawDiff{text: configDiff}
	structured := &fakeStructured{diffs: []models.FileDiff{{FromPath: "a.json", ToPath: "a.json"}}}
	s := newTestSession(t, models.RepositorySnapshot{},
		Sources{Content: &fakeContent{}, RawDiff: raw, StructuredDiff: structured})

	entry, err := s.StructuredDiffForFile(context.Background(), "a.json")
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.EqualValues(t, 0, atomic.LoadInt32(&raw.calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&structured.calls))
}

func TestDiffForFile(t *testing.T) {
	content := &fakeContent{files: map[string]map[string]string{
		"abc123": {"config.json": "{\n  \"retries\": 2,\n  \"name\": \"svc\"\n}"},
		"def456": {"config.json": "{\n  \"retries\": 5,\n  \"name\": \"svc\"\n}"},
	}}
	s := newTestSession(t,
		models.RepositorySnapshot{ModifiedFiles: []string{"config.json"}},
		Sources{Content: content, RawDiff: &fakeRawDiff{text: configDiff}},
	)

	td, err := s.DiffForFile(context.Background(), "config.json")
	require.NoError(t, err)
	require.NotNil(t, td)

	assert.Equal(t, "{\n  \"retries\": 2,\n  \"retries\": 5,\n  \"name\": \"svc\"\n}", td.Diff)
	assert.Equal(t, "  \"retries\": 5,", td.Added)
	assert.Equal(t, "  \"retries\": 2,", td.Removed)
	assert.Equal(t, content.files["abc123"]["config.json"], td.Before)
	assert.Equal(t, content.files["def456"]["config.json"], td.After)

	// unchanged files have no text diff
	td, err = s.DiffForFile(context.Background(), "untouched.go")
	require.NoError(t, err)
	assert.Nil(t, td)
}

func TestDiffForFileSeparator(t *testing.T) {
	s := newTestSession(t,
		models.RepositorySnapshot{ModifiedFiles: []string{"config.json"}},
		Sources{Content: &fakeContent{}, RawDiff: &fakeRawDiff{text: configDiff}},
		WithSeparator("|"),
	)

	td, err := s.DiffForFile(context.Background(), "config.json")
	require.NoError(t, err)
	assert.Equal(t, "{|  \"retries\": 2,|  \"retries\": 5,|  \"name\": \"svc\"|}", td.Diff)
}

func TestDiffForFileMissingContentIsEmpty(t *testing.T) {
	// content provider knows nothing: both sides come back empty
	s := newTestSession(t,
		models.RepositorySnapshot{CreatedFiles: []string{"config.json"}},
		Sources{Content: &fakeContent{}, RawDiff: &fakeRawDiff{text: configDiff}},
	)

	td, err := s.DiffForFile(context.Background(), "config.json")
	require.NoError(t, err)
	require.NotNil(t, td)
	assert.Equal(t, "", td.Before)
	assert.Equal(t, "", td.After)
}

func TestJSONPatchForFileOnlyModified(t *testing.T) {
	s := newTestSession(t,
		models.RepositorySnapshot{
			CreatedFiles: []string{"new.json"},
			DeletedFiles: []string{"old.json"},
		},
		Sources{Content: &fakeContent{}, RawDiff: &fakeRawDiff{}},
	)

	for _, name := range []string{"new.json", "old.json", "unrelated.json"} {
		fp, err := s.JSONPatchForFile(context.Background(), name)
		require.NoError(t, err, name)
		assert.Nil(t, fp, name)
	}
}

func TestJSONPatchForFile(t *testing.T) {
	content := &fakeContent{files: map[string]map[string]string{
		"abc123": {"config.json": `{"retries": 2, "name": "svc"}`},
		"def456": {"config.json": `{"retries": 5, "name": "svc"}`},
	}}
	s := newTestSession(t,
		models.RepositorySnapshot{ModifiedFiles: []string{"config.json"}},
		Sources{Content: content, RawDiff: &fakeRawDiff{text: configDiff}},
	)

	fp, err := s.JSONPatchForFile(context.Background(), "config.json")
	require.NoError(t, err)
	require.NotNil(t, fp)
	require.NotNil(t, fp.Before)
	require.NotNil(t, fp.After)
	require.Len(t, fp.Patch, 1)
	assert.Equal(t, "replace", fp.Patch[0].Op)
	assert.Equal(t, "/retries", fp.Patch[0].Path)
}

func TestJSONPatchMissingBaseRevision(t *testing.T) {
	content := &fakeContent{files: map[string]map[string]string{
		"def456": {"settings.json": `{"a": 1, "b": 2}`},
	}}
	s := newTestSession(t,
		models.RepositorySnapshot{ModifiedFiles: []string{"settings.json"}},
		Sources{Content: content, RawDiff: &fakeRawDiff{}},
	)

	fp, err := s.JSONPatchForFile(context.Background(), "settings.json")
	require.NoError(t, err)
	require.NotNil(t, fp)

	// the missing side is exposed as null but diffed as {}
	assert.Nil(t, fp.Before)
	require.NotNil(t, fp.After)

	var added []string
	for _, op := range fp.Patch {
		require.Equal(t, "add", op.Op)
		added = append(added, op.Path)
	}
	assert.ElementsMatch(t, []string{"/a", "/b"}, added)
}

func TestJSONPatchParseFailureIsolation(t *testing.T) {
	content := &fakeContent{files: map[string]map[string]string{
		"abc123": {
			"good.json": `{"v": 1}`,
			"bad.json":  " ",
		},
		"def456": {
			"good.json": `{"v": 2}`,
			"bad.json":  " ",
		},
	}}
	s := newTestSession(t,
		models.RepositorySnapshot{ModifiedFiles: []string{"good.json", "bad.json"}},
		Sources{Content: content, RawDiff: &fakeRawDiff{}},
	)

	_, err := s.JSONPatchForFile(context.Background(), "bad.json")
	require.Error(t, err)

	fp, err := s.JSONPatchForFile(context.Background(), "good.json")
	require.NoError(t, err)
	require.NotNil(t, fp)
	require.Len(t, fp.Patch, 1)
}

func TestJSONPatchTransportFailurePropagates(t *testing.T) {
	transportErr := errors.New("connection reset")
	s := newTestSession(t,
		models.RepositorySnapshot{ModifiedFiles: []string{"config.json"}},
		Sources{Content: &fakeContent{err: transportErr}, RawDiff: &fakeRawDiff{}},
	)

	_, err := s.JSONPatchForFile(context.Background(), "config.json")
	assert.ErrorIs(t, err, transportErr)
}

func TestJSONDiffForFile(t *testing.T) {
	content := &fakeContent{files: map[string]map[string]string{
		"abc123": {"pkg.json": `{"deps": ["a", "b"]}`},
		"def456": {"pkg.json": `{"deps": ["b", "c"]}`},
	}}
	s := newTestSession(t,
		models.RepositorySnapshot{ModifiedFiles: []string{"pkg.json"}},
		Sources{Content: content, RawDiff: &fakeRawDiff{}},
	)

	tree, err := s.JSONDiffForFile(context.Background(), "pkg.json")
	require.NoError(t, err)
	require.Contains(t, tree, "deps")
}

func TestJSONDiffForFileEmptyWhenNotApplicable(t *testing.T) {
	s := newTestSession(t, models.RepositorySnapshot{},
		Sources{Content: &fakeContent{}, RawDiff: &fakeRawDiff{}})

	tree, err := s.JSONDiffForFile(context.Background(), "untouched.go")
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Empty(t, tree)
}
