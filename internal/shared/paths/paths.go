package paths

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalid is returned for empty paths and paths that leave the project root
var ErrInvalid = errors.New("invalid path")

// Placeholder is the file name that materializes an empty directory
const Placeholder = ".placeholder"

// Normalize trims whitespace, strips leading "./" and "/", and cleans the
// path. ".." segments are resolved on a stack; popping past the root fails.
func Normalize(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalid)
	}

	var stack []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(stack) == 0 {
				return "", fmt.Errorf("%w: %q escapes the project root", ErrInvalid, p)
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, seg)
		}
	}
	if len(stack) == 0 {
		return "", fmt.Errorf("%w: %q names the project root", ErrInvalid, p)
	}
	return strings.Join(stack, "/"), nil
}

// Dir returns the parent directory of p, or "" for root-level files
func Dir(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

// Base returns the last segment of p
func Base(p string) string {
	return path.Base(p)
}

// Ext returns the lower-cased extension of p including the dot
func Ext(p string) string {
	return strings.ToLower(path.Ext(p))
}

// Under reports whether p lies inside directory dir
func Under(p, dir string) bool {
	return strings.HasPrefix(p, dir+"/")
}

// PlaceholderFor returns the placeholder path that materializes dir
func PlaceholderFor(dir string) string {
	return dir + "/" + Placeholder
}

// IsPlaceholder reports whether p is a directory placeholder
func IsPlaceholder(p string) bool {
	return Base(p) == Placeholder
}
