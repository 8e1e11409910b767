// Package commenttree turns the flat, parent-referencing comment list of a
// post into a parent-indexed view for nested rendering. The grouping pass
// is O(n); child lookups are O(1) afterwards. The tree is rebuilt from
// scratch on every fetch; per-post comment counts are small enough that no
// incremental maintenance is needed.
package commenttree

import "github.com/fanloft-app/backend/internal/models"

// Tree indexes comments by parent. Depth is unbounded: a reply chain of any
// length is represented purely by parent pointers.
type Tree struct {
	roots    []models.CommentView
	children map[uint][]models.CommentView
}

// Build groups a flat comment sequence by parent, preserving input order
// within each group. Every input comment lands in exactly one group:
// Roots() for nil parents, Replies(parentID) otherwise.
func Build(comments []models.CommentView) *Tree {
	t := &Tree{children: make(map[uint][]models.CommentView)}
	for _, c := range comments {
		if c.ParentID == nil {
			t.roots = append(t.roots, c)
		} else {
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c)
		}
	}
	return t
}

// Roots returns the top-level comments in input order.
func (t *Tree) Roots() []models.CommentView {
	return t.roots
}

// Replies returns the direct replies to a comment in input order.
func (t *Tree) Replies(parentID uint) []models.CommentView {
	return t.children[parentID]
}

// Node is a comment with its reply subtree resolved.
type Node struct {
	models.CommentView
	Replies []*Node `json:"replies"`
}

// Nodes materializes the nested view starting from the top-level comments.
// Replies whose parent is missing from the input (e.g. a partial fetch) are
// unreachable here; use Replies directly for those.
func (t *Tree) Nodes() []*Node {
	return t.expand(t.roots)
}

func (t *Tree) expand(group []models.CommentView) []*Node {
	nodes := make([]*Node, len(group))
	for i, c := range group {
		nodes[i] = &Node{
			CommentView: c,
			Replies:     t.expand(t.children[c.ID]),
		}
	}
	return nodes
}
