package models

// Line types used in DiffLine.LineType.
const (
	LineAdded   = "added"
	LineDeleted = "deleted"
	LineContext = "context"
)

// DiffLine represents a single line in a diff hunk.
type DiffLine struct {
	Content   string `json:"content"`
	LineType  string `json:"line_type"` // 'added', 'deleted', 'context'
	OldLineNo int    `json:"old_line_no"`
	NewLineNo int    `json:"new_line_no"`
}

// DiffHunk represents one contiguous block of line changes in a file's diff.
type DiffHunk struct {
	OldStartLine int        `json:"old_start_line"`
	OldLineCount int        `json:"old_line_count"`
	NewStartLine int        `json:"new_start_line"`
	NewLineCount int        `json:"new_line_count"`
	HeaderText   string     `json:"header_text"`
	Lines        []DiffLine `json:"lines"`
}

// FileDiff is the parsed diff for a single file. FromPath and ToPath differ
// when the file was renamed between the two revisions.
type FileDiff struct {
	FromPath  string     `json:"from_path"`
	ToPath    string     `json:"to_path"`
	IsNew     bool       `json:"is_new"`
	IsDeleted bool       `json:"is_deleted"`
	IsRenamed bool       `json:"is_renamed"`
	Hunks     []DiffHunk `json:"hunks"`
}

// Matches reports whether name refers to this file on either side of the
// diff, so a renamed file is found under both its old and new path.
func (d *FileDiff) Matches(name string) bool {
	if name == "" {
		return false
	}
	return d.FromPath == name || d.ToPath == name
}

// RevisionPair identifies the comparison window for one session.
type RevisionPair struct {
	Base string `json:"base"`
	Head string `json:"head"`
}

// Commit holds the commit metadata exposed by a repository snapshot.
type Commit struct {
	SHA         string `json:"sha"`
	Message     string `json:"message"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

// RepositorySnapshot classifies the filenames touched between two revisions.
// It is immutable for the lifetime of a session.
type RepositorySnapshot struct {
	ModifiedFiles []string `json:"modified_files"`
	CreatedFiles  []string `json:"created_files"`
	DeletedFiles  []string `json:"deleted_files"`
	Commits       []Commit `json:"commits"`
}

// IsModified reports whether name is in the modified set.
func (s RepositorySnapshot) IsModified(name string) bool {
	return contains(s.ModifiedFiles, name)
}

// IsCreated reports whether name is in the created set.
func (s RepositorySnapshot) IsCreated(name string) bool {
	return contains(s.CreatedFiles, name)
}

// IsDeleted reports whether name is in the deleted set.
func (s RepositorySnapshot) IsDeleted(name string) bool {
	return contains(s.DeletedFiles, name)
}

// Touches reports whether name appears in any of the three file sets.
func (s RepositorySnapshot) Touches(name string) bool {
	return s.IsModified(name) || s.IsCreated(name) || s.IsDeleted(name)
}

func contains(files []string, name string) bool {
	for _, f := range files {
		if f == name {
			return true
		}
	}
	return false
}
