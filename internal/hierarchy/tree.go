// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package hierarchy

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// BuildTreeFromEagerLoad turns a category whose Children were eager-loaded
// by the store into a display tree. At every level hidden entries (inactive,
// unapproved or deleted) are dropped and siblings are sorted. The returned
// node is always the input category itself, flagged as the tree root.
func BuildTreeFromEagerLoad(root *models.Category) *models.TreeNode {
	if root == nil {
		return nil
	}
	return wrapEager(*root, 0)
}

// BuildMenu builds display trees for a set of eager-loaded roots, dropping
// hidden roots as well.
func BuildMenu(roots []models.Category) []*models.TreeNode {
	visible := visibleSorted(roots)
	out := make([]*models.TreeNode, 0, len(visible))
	for _, r := range visible {
		out = append(out, wrapEager(r, 0))
	}
	return out
}

// wrapEager recurses over eager-loaded levels. The store loads only a few
// levels and depth is bounded by MaxDepth, so recursion depth stays small.
func wrapEager(c models.Category, indent int) *models.TreeNode {
	kids := visibleSorted(c.Children)
	n := newTreeNode(c, indent)
	n.IsRoot = indent == 0
	for _, k := range kids {
		n.Children = append(n.Children, wrapEager(k, indent+1))
	}
	n.IsLeaf = len(n.Children) == 0
	n.ChildTotal = len(n.Children)
	return n
}

// BuildTreeFromFlatList nests an arbitrary flat list of categories. A node
// whose parent is missing from the list becomes an orphaned root; no input
// node is dropped.
func BuildTreeFromFlatList(nodes []models.Category) []*models.TreeNode {
	byID := make(map[uuid.UUID]*models.TreeNode, len(nodes))
	order := make([]uuid.UUID, 0, len(nodes))
	for _, c := range nodes {
		if _, dup := byID[c.ID]; dup {
			continue
		}
		byID[c.ID] = newTreeNode(c, 0)
		order = append(order, c.ID)
	}

	parentOf := make(map[uuid.UUID]uuid.UUID, len(order))
	var roots []*models.TreeNode
	for _, id := range order {
		n := byID[id]
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				parentOf[id] = parent.ID
				continue
			}
		}
		roots = append(roots, n)
	}

	// Nodes on a parent loop are unreachable from any root. Detach the
	// first one found on each loop and treat it as a root.
	reached := make(map[uuid.UUID]struct{}, len(order))
	mark := func(from *models.TreeNode) {
		stack := []*models.TreeNode{from}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, ok := reached[n.ID]; ok {
				continue
			}
			reached[n.ID] = struct{}{}
			stack = append(stack, n.Children...)
		}
	}
	for _, r := range roots {
		mark(r)
	}
	for _, id := range order {
		if _, ok := reached[id]; ok {
			continue
		}
		n := byID[id]
		parent := byID[parentOf[id]]
		parent.Children = removeChild(parent.Children, n)
		roots = append(roots, n)
		mark(n)
	}

	sortNodes(roots)
	stack := make([]*models.TreeNode, 0, len(roots))
	for _, r := range roots {
		r.IsRoot = true
		stack = append(stack, r)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sortNodes(n.Children)
		n.IsLeaf = len(n.Children) == 0
		n.ChildTotal = len(n.Children)
		for _, child := range n.Children {
			child.Indent = n.Indent + 1
			child.Label = indentLabel(child.Name, child.Indent)
			stack = append(stack, child)
		}
	}
	return roots
}

// Flatten walks trees depth-first, parents before children, in display
// order. Useful for indented select lists.
func Flatten(roots []*models.TreeNode) []*models.TreeNode {
	var out []*models.TreeNode
	stack := make([]*models.TreeNode, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}

// Localize rewrites names and labels of already built trees for lang,
// falling back to the default name where no translation exists.
func Localize(roots []*models.TreeNode, lang string) {
	if lang == "" {
		return
	}
	for _, n := range Flatten(roots) {
		n.Name = n.DisplayName(lang)
		n.Label = indentLabel(n.Name, n.Indent)
	}
}

func newTreeNode(c models.Category, indent int) *models.TreeNode {
	c.Children = nil
	return &models.TreeNode{
		Category: c,
		Children: []*models.TreeNode{},
		Indent:   indent,
		Label:    indentLabel(c.Name, indent),
	}
}

func indentLabel(name string, indent int) string {
	return strings.Repeat("— ", indent) + name
}

func visibleSorted(in []models.Category) []models.Category {
	out := make([]models.Category, 0, len(in))
	for _, c := range in {
		if c.Visible() {
			out = append(out, c)
		}
	}
	models.SortSiblings(out)
	return out
}

func removeChild(children []*models.TreeNode, target *models.TreeNode) []*models.TreeNode {
	for i, c := range children {
		if c == target {
			return append(children[:i], children[i+1:]...)
		}
	}
	return children
}

func sortNodes(nodes []*models.TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return models.SiblingLess(&nodes[i].Category, &nodes[j].Category)
	})
}
