package types

import (
	"path"
	"strings"
)

// ProjectFile is one record of the virtual file store.
type ProjectFile struct {
	Path    string `json:"path" yaml:"path" toml:"path"`
	Content string `json:"content" yaml:"content" toml:"content,multiline"`
}

// PlaceholderName materializes an otherwise empty directory.
const PlaceholderName = ".placeholder"

// FileKind classifies a project file by extension
type FileKind string

const (
	KindScript      FileKind = "script"
	KindStyle       FileKind = "style"
	KindMarkup      FileKind = "markup"
	KindPlaceholder FileKind = "placeholder"
	KindOther       FileKind = "other"
)

// ScriptExtensions are tried in this order when resolving extensionless specifiers.
var ScriptExtensions = []string{".js", ".ts", ".jsx", ".tsx"}

// StyleExtensions resolve to an empty module inside the loader.
var StyleExtensions = []string{".css", ".scss", ".sass", ".less"}

// KindOf returns the kind of file at p.
func KindOf(p string) FileKind {
	if path.Base(p) == PlaceholderName {
		return KindPlaceholder
	}
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".js", ".jsx", ".ts", ".tsx":
		return KindScript
	case ".css":
		return KindStyle
	case ".html", ".htm":
		return KindMarkup
	}
	return KindOther
}

// FilterKind returns the files of the given kind, preserving order.
func FilterKind(files []ProjectFile, kind FileKind) []ProjectFile {
	var out []ProjectFile
	for _, f := range files {
		if KindOf(f.Path) == kind {
			out = append(out, f)
		}
	}
	return out
}
