package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

func TestHasher(t *testing.T) {
	h := DefaultHasher()
	a := h.HashString("<html></html>")
	assert.Len(t, a, 64)
	assert.Equal(t, a, h.HashString("<html></html>"))
	assert.NotEqual(t, a, NewHasher(SHA256).HashString("<html></html>"))
	assert.Equal(t, a[:8], Short(a))
}

func TestHashFilesOrderIndependent(t *testing.T) {
	h := DefaultHasher()
	files := []types.ProjectFile{
		{Path: "index.html", Content: "<p>hi</p>"},
		{Path: "script.js", Content: "console.log(1)"},
	}
	reversed := []types.ProjectFile{files[1], files[0]}
	assert.Equal(t, h.HashFiles(files), h.HashFiles(reversed))

	// moving bytes across the path/content boundary changes the digest
	shifted := []types.ProjectFile{{Path: "ab", Content: "c"}}
	other := []types.ProjectFile{{Path: "a", Content: "bc"}}
	assert.NotEqual(t, h.HashFiles(shifted), h.HashFiles(other))
}

func TestValidation(t *testing.T) {
	assert.NoError(t, ValidateFileContent("a.js", "x"))
	assert.Error(t, ValidateFileContent("a.js", strings.Repeat("x", MaxFileSize+1)))
	assert.Error(t, ValidateFileContent("a\x00.js", ""))

	assert.NoError(t, ValidateCommand("touch a.txt"))
	assert.Error(t, ValidateCommand("ls\nrm x"))
	assert.Error(t, ValidateCommand(strings.Repeat("a", MaxCommandLength+1)))

	assert.NoError(t, ValidateProjectSize(3, 100))
	assert.Error(t, ValidateProjectSize(MaxFiles+1, 100))
}
