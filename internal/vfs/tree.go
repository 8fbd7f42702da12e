package vfs

import (
	"sort"
	"strings"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// Node is one entry of the derived file tree. Directories carry Children;
// leaves carry File.
type Node struct {
	Name     string             `json:"name"`
	Path     string             `json:"path"`
	File     *types.ProjectFile `json:"file,omitempty"`
	Children []*Node            `json:"children,omitempty"`
}

// IsDir reports whether the node is a directory
func (n *Node) IsDir() bool {
	return n.File == nil
}

// BuildTree derives the nested tree from a flat file list. Paths are sorted
// first, so the result does not depend on input order.
func BuildTree(files []types.ProjectFile) *Node {
	sorted := make([]types.ProjectFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	root := &Node{}
	index := map[string]*Node{"": root}

	for i := range sorted {
		f := sorted[i]
		parts := strings.Split(f.Path, "/")
		parent := root
		prefix := ""
		for depth, part := range parts {
			if part == "" {
				continue
			}
			if prefix == "" {
				prefix = part
			} else {
				prefix += "/" + part
			}
			if depth == len(parts)-1 {
				leaf := f
				parent.Children = append(parent.Children, &Node{Name: part, Path: prefix, File: &leaf})
				break
			}
			dir, ok := index[prefix]
			if !ok {
				dir = &Node{Name: part, Path: prefix}
				index[prefix] = dir
				parent.Children = append(parent.Children, dir)
			}
			parent = dir
		}
	}
	return root
}

// Walk visits the tree depth-first in sibling order
func (n *Node) Walk(fn func(node *Node, depth int)) {
	var visit func(*Node, int)
	visit = func(cur *Node, depth int) {
		for _, c := range cur.Children {
			fn(c, depth)
			visit(c, depth+1)
		}
	}
	visit(n, 0)
}
