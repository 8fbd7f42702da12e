package vfs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func TestApply(t *testing.T) {
	s := newStore(t,
		types.ProjectFile{Path: "index.html", Content: "<h1>old</h1>\n"},
		types.ProjectFile{Path: "style.css", Content: "body{}\n"},
		types.ProjectFile{Path: "old/a.js", Content: "1\n"},
	)

	diffs, err := s.Apply(types.ChangeSet{
		FileChanges: []types.FileChange{
			{Path: "index.html", Content: "<h1>new</h1>\n"},
			{Path: "src/App.jsx", Content: "export default 1\n"},
			{Path: "style.css", Content: "body{}\n"},
		},
		FilesToDelete: []string{"old"},
	})
	require.NoError(t, err)

	status := map[string]string{}
	for _, d := range diffs {
		status[d.Path] = d.Status
	}
	assert.Equal(t, map[string]string{
		"index.html":  "modified",
		"src/App.jsx": "added",
		"style.css":   "unchanged",
		"old/a.js":    "deleted",
	}, status)

	assert.Contains(t, diffs[0].Unified, "-<h1>old</h1>")
	assert.Contains(t, diffs[0].Unified, "+<h1>new</h1>")
	assert.Equal(t, []string{"index.html", "style.css", "src/App.jsx"}, pathsOf(s.List()))
}

func TestApplyIsAtomic(t *testing.T) {
	s := newStore(t, types.ProjectFile{Path: "a.js", Content: "1"})
	before := s.List()

	_, err := s.Apply(types.ChangeSet{
		FileChanges:   []types.FileChange{{Path: "b.js", Content: "2"}},
		FilesToDelete: []string{"missing.js"},
	})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, before, s.List())

	_, err = s.Apply(types.ChangeSet{FilesToDelete: []string{"a.js"}})
	assert.True(t, errors.Is(err, ErrLastFile))
	assert.Equal(t, before, s.List())
}
