package vfs

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/playground/internal/shared/paths"
	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Store is the virtual file store of one project
type Store struct {
	files atomic.Pointer[[]types.ProjectFile]
	mu    sync.Mutex // serializes writers
}

// New creates a store seeded with files. An empty seed falls back to the
// default starter project.
func New(seed []types.ProjectFile) (*Store, error) {
	if len(seed) == 0 {
		seed = DefaultProject()
	}
	normalized, err := normalizeAll(seed)
	if err != nil {
		return nil, err
	}
	s := &Store{}
	s.files.Store(&normalized)
	return s, nil
}

// List returns the current snapshot in insertion order. The returned slice
// is never mutated by the store and may be shared.
func (s *Store) List() []types.ProjectFile {
	return *s.files.Load()
}

// Len returns the number of files
func (s *Store) Len() int {
	return len(s.List())
}

// Get returns the file at p
func (s *Store) Get(p string) (types.ProjectFile, error) {
	norm, err := paths.Normalize(p)
	if err != nil {
		return types.ProjectFile{}, err
	}
	for _, f := range s.List() {
		if f.Path == norm {
			return f, nil
		}
	}
	return types.ProjectFile{}, fmt.Errorf("%w: %s", ErrNotFound, norm)
}

// Exists reports whether an exact file exists at p
func (s *Store) Exists(p string) bool {
	_, err := s.Get(p)
	return err == nil
}

// IsDir reports whether some file lives under dir. An exact file at dir
// takes precedence over the directory reading.
func (s *Store) IsDir(dir string) bool {
	norm, err := paths.Normalize(dir)
	if err != nil {
		return false
	}
	files := s.List()
	return indexOf(files, norm) < 0 && hasUnder(files, norm)
}

// Upsert creates the file at p or overwrites its content in place. A new
// path fails with ErrPathExists when it collides with a directory or lies
// below a file.
func (s *Store) Upsert(p, content string) (types.ProjectFile, error) {
	norm, err := paths.Normalize(p)
	if err != nil {
		return types.ProjectFile{}, err
	}
	file := types.ProjectFile{Path: norm, Content: content}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.List()
	next := make([]types.ProjectFile, len(cur), len(cur)+1)
	copy(next, cur)
	if i := indexOf(cur, norm); i >= 0 {
		next[i] = file
	} else {
		if conflicts(cur, norm) {
			return types.ProjectFile{}, fmt.Errorf("%w: %s", ErrPathExists, norm)
		}
		next = append(next, file)
	}
	s.files.Store(&next)
	return file, nil
}

// Create adds a new file and fails with ErrPathExists on collision,
// including a collision between a file and a directory
func (s *Store) Create(p, content string) (types.ProjectFile, error) {
	norm, err := paths.Normalize(p)
	if err != nil {
		return types.ProjectFile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.List()
	if indexOf(cur, norm) >= 0 || conflicts(cur, norm) {
		return types.ProjectFile{}, fmt.Errorf("%w: %s", ErrPathExists, norm)
	}
	file := types.ProjectFile{Path: norm, Content: content}
	next := make([]types.ProjectFile, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, file)
	s.files.Store(&next)
	return file, nil
}

// Mkdir materializes dir with a placeholder file. It fails with
// ErrPathExists when dir already holds files, is itself a file or lies
// below a file.
func (s *Store) Mkdir(dir string) (types.ProjectFile, error) {
	norm, err := paths.Normalize(dir)
	if err != nil {
		return types.ProjectFile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.List()
	if indexOf(cur, norm) >= 0 || conflicts(cur, norm) {
		return types.ProjectFile{}, fmt.Errorf("%w: %s", ErrPathExists, norm)
	}
	file := types.ProjectFile{Path: paths.PlaceholderFor(norm)}
	next := make([]types.ProjectFile, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, file)
	s.files.Store(&next)
	return file, nil
}

// Delete removes the exact file at p. When no exact file exists, every file
// under "p/" is removed instead. It returns the removed paths.
func (s *Store) Delete(p string) ([]string, error) {
	norm, err := paths.Normalize(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.List()
	exact := indexOf(cur, norm) >= 0

	next := make([]types.ProjectFile, 0, len(cur))
	var removed []string
	for _, f := range cur {
		match := f.Path == norm
		if !exact {
			match = paths.Under(f.Path, norm)
		}
		if match {
			removed = append(removed, f.Path)
			continue
		}
		next = append(next, f)
	}

	if len(removed) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, norm)
	}
	if len(next) == 0 {
		return nil, ErrLastFile
	}
	s.files.Store(&next)
	return removed, nil
}

// Replace swaps the whole collection. Duplicate paths keep the last content
// at the position of the first occurrence.
func (s *Store) Replace(files []types.ProjectFile) error {
	if len(files) == 0 {
		return ErrLastFile
	}
	next, err := normalizeAll(files)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files.Store(&next)
	return nil
}

func normalizeAll(files []types.ProjectFile) ([]types.ProjectFile, error) {
	out := make([]types.ProjectFile, 0, len(files))
	pos := make(map[string]int, len(files))
	for _, f := range files {
		norm, err := paths.Normalize(f.Path)
		if err != nil {
			return nil, err
		}
		if i, ok := pos[norm]; ok {
			out[i].Content = f.Content
			continue
		}
		pos[norm] = len(out)
		out = append(out, types.ProjectFile{Path: norm, Content: f.Content})
	}
	if err := checkLayout(out); err != nil {
		return nil, err
	}
	return out, nil
}

// conflicts reports whether a new file at p would share its path with a
// directory or sit below an existing file
func conflicts(files []types.ProjectFile, p string) bool {
	if hasUnder(files, p) {
		return true
	}
	for dir := paths.Dir(p); dir != ""; dir = paths.Dir(dir) {
		if indexOf(files, dir) >= 0 {
			return true
		}
	}
	return false
}

// checkLayout rejects a collection in which some file path is also the
// directory of another file
func checkLayout(files []types.ProjectFile) error {
	set := make(map[string]bool, len(files))
	for _, f := range files {
		set[f.Path] = true
	}
	for _, f := range files {
		for dir := paths.Dir(f.Path); dir != ""; dir = paths.Dir(dir) {
			if set[dir] {
				return fmt.Errorf("%w: %s is both a file and the directory of %s", ErrPathExists, dir, f.Path)
			}
		}
	}
	return nil
}

func indexOf(files []types.ProjectFile, p string) int {
	for i, f := range files {
		if f.Path == p {
			return i
		}
	}
	return -1
}

func hasUnder(files []types.ProjectFile, dir string) bool {
	for _, f := range files {
		if paths.Under(f.Path, dir) {
			return true
		}
	}
	return false
}
