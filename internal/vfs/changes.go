package vfs

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/GriffinCanCode/playground/internal/shared/paths"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// FileDiff describes what a change set did to one path
type FileDiff struct {
	Path    string `json:"path"`
	Status  string `json:"status"` // added, modified, deleted, unchanged
	Unified string `json:"diff,omitempty"`
}

// Apply applies a batch of writes and deletions as one replacement. Writes
// run before deletions; deleting a path that does not exist is an error, as
// is a batch that would empty the store. On error nothing changes.
func (s *Store) Apply(cs types.ChangeSet) ([]FileDiff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.List()
	before := make(map[string]string, len(cur))
	for _, f := range cur {
		before[f.Path] = f.Content
	}

	next := make([]types.ProjectFile, len(cur))
	copy(next, cur)
	var order []string
	touched := map[string]bool{}

	for _, ch := range cs.FileChanges {
		norm, err := paths.Normalize(ch.Path)
		if err != nil {
			return nil, err
		}
		if i := indexOf(next, norm); i >= 0 {
			next[i] = types.ProjectFile{Path: norm, Content: ch.Content}
		} else {
			next = append(next, types.ProjectFile{Path: norm, Content: ch.Content})
		}
		if !touched[norm] {
			touched[norm] = true
			order = append(order, norm)
		}
	}

	for _, del := range cs.FilesToDelete {
		norm, err := paths.Normalize(del)
		if err != nil {
			return nil, err
		}
		exact := indexOf(next, norm) >= 0
		kept := next[:0:0]
		hit := false
		for _, f := range next {
			if f.Path == norm || (!exact && paths.Under(f.Path, norm)) {
				hit = true
				if !touched[f.Path] {
					touched[f.Path] = true
					order = append(order, f.Path)
				}
				continue
			}
			kept = append(kept, f)
		}
		if !hit {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, norm)
		}
		next = kept
	}

	if len(next) == 0 {
		return nil, ErrLastFile
	}
	if err := checkLayout(next); err != nil {
		return nil, err
	}

	after := make(map[string]string, len(next))
	for _, f := range next {
		after[f.Path] = f.Content
	}

	diffs := make([]FileDiff, 0, len(order))
	for _, p := range order {
		old, had := before[p]
		neu, has := after[p]
		diffs = append(diffs, diffFile(p, old, had, neu, has))
	}

	s.files.Store(&next)
	return diffs, nil
}

func diffFile(p, old string, had bool, neu string, has bool) FileDiff {
	d := FileDiff{Path: p}
	switch {
	case !had && has:
		d.Status = "added"
	case had && !has:
		d.Status = "deleted"
	case old == neu:
		d.Status = "unchanged"
		return d
	default:
		d.Status = "modified"
	}

	fromFile, toFile := "a/"+p, "b/"+p
	if !had {
		fromFile = "/dev/null"
	}
	if !has {
		toFile = "/dev/null"
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(neu),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	})
	if err == nil {
		d.Unified = text
	}
	return d
}
