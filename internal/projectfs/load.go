package projectfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	"github.com/GriffinCanCode/playground/internal/shared/paths"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// DefaultIgnore lists paths LoadDir never reads
var DefaultIgnore = []string{
	"node_modules/**",
	".git/**",
	"**/.DS_Store",
}

// Skipped is a file LoadDir left out
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Loaded is the result of LoadDir
type Loaded struct {
	Files   []types.ProjectFile `json:"files"`
	Skipped []Skipped           `json:"skipped,omitempty"`
}

// LoadDir reads the project tree under root. Ignored, binary and non-UTF-8
// files are reported in Skipped; empty directories become placeholders.
// Files come back sorted by path.
func LoadDir(ctx context.Context, root string, ignore []string) (*Loaded, error) {
	if ignore == nil {
		ignore = DefaultIgnore
	}
	for _, pattern := range ignore {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var (
		mu    sync.Mutex
		out   Loaded
		dirs  []string
		total int
	)
	ignored := func(rel string) bool {
		for _, pattern := range ignore {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return true
			}
		}
		return false
	}

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if ignored(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			mu.Lock()
			dirs = append(dirs, rel)
			mu.Unlock()
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		norm, nerr := paths.Normalize(rel)
		data, rerr := os.ReadFile(p)
		reason := ""
		switch {
		case nerr != nil:
			reason = nerr.Error()
		case rerr != nil:
			reason = rerr.Error()
		default:
			if cerr := CheckContent(norm, data); cerr != nil {
				reason = cerr.Error()
			}
		}

		mu.Lock()
		defer mu.Unlock()
		if reason != "" {
			out.Skipped = append(out.Skipped, Skipped{Path: rel, Reason: reason})
			return nil
		}
		out.Files = append(out.Files, types.ProjectFile{Path: norm, Content: string(data)})
		total += len(data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if !hasFileUnder(out.Files, dir) && !hasDirUnder(dirs, dir) && !hasSkippedUnder(out.Skipped, dir) {
			out.Files = append(out.Files, types.ProjectFile{Path: paths.PlaceholderFor(dir)})
		}
	}
	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Path < out.Files[j].Path })
	sort.Slice(out.Skipped, func(i, j int) bool { return out.Skipped[i].Path < out.Skipped[j].Path })

	if err := utils.ValidateProjectSize(len(out.Files), total); err != nil {
		return nil, err
	}
	return &out, nil
}

func hasDirUnder(dirs []string, dir string) bool {
	for _, d := range dirs {
		if paths.Under(d, dir) {
			return true
		}
	}
	return false
}

func hasSkippedUnder(skipped []Skipped, dir string) bool {
	for _, s := range skipped {
		if paths.Under(s.Path, dir) {
			return true
		}
	}
	return false
}
