package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebinsua/diffscope/pkg/models"
)

const sampleDiff = `diff --git a/config.json b/config.json
index 83db48f..bf269f4 100644
--- a/config.json
+++ b/config.json
@@ -1,4 +1,4 @@
 {
-  "retries": 2,
+  "retries": 5,
   "name": "svc"
 }
diff --git a/old/name.txt b/new/name.txt
similarity index 90%
rename from old/name.txt
rename to new/name.txt
index 83db48f..bf269f4 100644
--- a/old/name.txt
+++ b/new/name.txt
@@ -1,2 +1,2 @@
 keep
-drop
+pick
diff --git a/fresh.txt b/fresh.txt
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/fresh.txt
@@ -0,0 +1,2 @@
+hello
+world
diff --git a/gone.txt b/gone.txt
deleted file mode 100644
index e69de29..0000000
--- a/gone.txt
+++ /dev/null
@@ -1 +0,0 @@
-goodbye
`

func TestParse(t *testing.T) {
	diffs, err := Parse(sampleDiff)
	require.NoError(t, err)
	require.Len(t, diffs, 4)

	modified := diffs[0]
	assert.Equal(t, "config.json", modified.FromPath)
	assert.Equal(t, "config.json", modified.ToPath)
	assert.False(t, modified.IsNew)
	assert.False(t, modified.IsRenamed)
	require.Len(t, modified.Hunks, 1)

	hunk := modified.Hunks[0]
	assert.Equal(t, 1, hunk.OldStartLine)
	assert.Equal(t, 4, hunk.OldLineCount)
	assert.Equal(t, 1, hunk.NewStartLine)
	assert.Equal(t, 4, hunk.NewLineCount)

	var kinds []string
	for _, line := range hunk.Lines {
		kinds = append(kinds, line.LineType)
	}
	assert.Equal(t, []string{
		models.LineContext,
		models.LineDeleted,
		models.LineAdded,
		models.LineContext,
		models.LineContext,
	}, kinds)
	assert.Equal(t, `  "retries": 2,`, hunk.Lines[1].Content)
	assert.Equal(t, `  "retries": 5,`, hunk.Lines[2].Content)
	assert.Equal(t, 2, hunk.Lines[1].OldLineNo)
	assert.Equal(t, 2, hunk.Lines[2].NewLineNo)

	renamed := diffs[1]
	assert.True(t, renamed.IsRenamed)
	assert.Equal(t, "old/name.txt", renamed.FromPath)
	assert.Equal(t, "new/name.txt", renamed.ToPath)
	assert.True(t, renamed.Matches("old/name.txt"))
	assert.True(t, renamed.Matches("new/name.txt"))

	created := diffs[2]
	assert.True(t, created.IsNew)
	assert.Equal(t, "fresh.txt", created.ToPath)
	require.Len(t, created.Hunks, 1)
	assert.Len(t, created.Hunks[0].Lines, 2)
	assert.Equal(t, models.LineAdded, created.Hunks[0].Lines[0].LineType)

	deleted := diffs[3]
	assert.True(t, deleted.IsDeleted)
	require.Len(t, deleted.Hunks, 1)
	assert.Equal(t, 1, deleted.Hunks[0].OldLineCount)
	assert.Equal(t, models.LineDeleted, deleted.Hunks[0].Lines[0].LineType)
}

func TestParseEmpty(t *testing.T) {
	diffs, err := Parse("")
	require.NoError(t, err)
	assert.Nil(t, diffs)
}

func TestParseNoHeaders(t *testing.T) {
	_, err := Parse("@@ -1 +1 @@\n-x\n+y\n")
	assert.Error(t, err)
}

func TestParseMalformedHunkHeader(t *testing.T) {
	_, err := Parse("diff --git a/f b/f\n--- a/f\n+++ b/f\n@@ garbage @@\n x\n")
	assert.Error(t, err)
}

func TestParseHunksMultiple(t *testing.T) {
	lines := []string{
		"@@ -1,2 +1,2 @@ func a()",
		" ctx",
		"-old",
		"+new",
		"@@ -10 +10,2 @@",
		" ten",
		"+eleven",
	}
	hunks, err := ParseHunks(lines)
	require.NoError(t, err)
	require.Len(t, hunks, 2)

	assert.Equal(t, "func a()", hunks[0].HeaderText)
	assert.Equal(t, 10, hunks[1].OldStartLine)
	assert.Equal(t, 1, hunks[1].OldLineCount) // omitted count defaults to 1
	assert.Equal(t, 2, hunks[1].NewLineCount)
	assert.Equal(t, 11, hunks[1].Lines[1].NewLineNo)
}
