package vfs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func TestBuildTree(t *testing.T) {
	root := BuildTree([]types.ProjectFile{
		{Path: "src/components/Button.jsx"},
		{Path: "index.html"},
		{Path: "src/App.jsx"},
		{Path: "lib/.placeholder"},
	})

	var got []string
	root.Walk(func(n *Node, depth int) {
		kind := "f"
		if n.IsDir() {
			kind = "d"
		}
		got = append(got, kind+":"+n.Path)
	})

	assert.Equal(t, []string{
		"f:index.html",
		"d:lib",
		"f:lib/.placeholder",
		"d:src",
		"f:src/App.jsx",
		"d:src/components",
		"f:src/components/Button.jsx",
	}, got)
}

func TestBuildTreeOrderIndependent(t *testing.T) {
	files := []types.ProjectFile{
		{Path: "a.js", Content: "1"},
		{Path: "src/b.js", Content: "2"},
		{Path: "src/c/d.ts", Content: "3"},
		{Path: "src/c/e.ts", Content: "4"},
		{Path: "z/.placeholder"},
		{Path: "index.html", Content: "5"},
	}
	want := BuildTree(files)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 25; i++ {
		shuffled := make([]types.ProjectFile, len(files))
		copy(shuffled, files)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		require.Equal(t, want, BuildTree(shuffled))
	}
}
