// Package tree maintains nested-set bounds for folder hierarchies.
//
// Every root folder owns a tree id. Inside a tree each node carries a
// [Lft, Rght] interval that strictly contains the intervals of its
// descendants, so subtree, ancestor and sibling lookups are plain range
// comparisons. Roots and siblings are ordered case-insensitively by name,
// which makes (TreeID, Lft) a pre-order walk of the whole forest.
package tree

import (
	"errors"
	"sort"
	"strings"

	"github.com/templui/spaces/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	ErrCycle  = errors.New("folder cannot be moved into itself or one of its descendants")
	ErrOrphan = errors.New("folder parent does not belong to the same tree")
)

// Build recomputes TreeID, Lft, Rght and Level for all nodes from their
// parent pointers and returns them in pre-order.
func Build(nodes []*model.Folder) ([]*model.Folder, error) {
	byID := make(map[string]*model.Folder, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	children := make(map[string][]*model.Folder, len(nodes))
	var roots []*model.Folder
	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		if _, ok := byID[*n.ParentID]; !ok {
			return nil, ErrOrphan
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}

	less := nameOrder()
	sortNodes(roots, less)
	for _, c := range children {
		sortNodes(c, less)
	}

	ordered := make([]*model.Folder, 0, len(nodes))
	var walk func(n *model.Folder, treeID, level int, counter *int)
	walk = func(n *model.Folder, treeID, level int, counter *int) {
		n.TreeID = treeID
		n.Level = level
		n.Lft = *counter
		*counter++
		ordered = append(ordered, n)
		for _, c := range children[n.ID] {
			walk(c, treeID, level+1, counter)
		}
		n.Rght = *counter
		*counter++
	}

	for i, root := range roots {
		counter := 1
		walk(root, i+1, 0, &counter)
	}

	// Nodes unreachable from a root sit on a parent cycle
	if len(ordered) != len(nodes) {
		return nil, ErrCycle
	}

	return ordered, nil
}

// ValidateMove reports ErrCycle when reparenting node under newParentID would
// place it inside its own subtree. An empty newParentID makes node a root.
func ValidateMove(all []*model.Folder, nodeID, newParentID string) error {
	if newParentID == "" {
		return nil
	}

	byID := make(map[string]*model.Folder, len(all))
	for _, n := range all {
		byID[n.ID] = n
	}

	seen := make(map[string]bool)
	current := newParentID
	for current != "" {
		if current == nodeID {
			return ErrCycle
		}
		if seen[current] {
			return ErrCycle
		}
		seen[current] = true

		n, ok := byID[current]
		if !ok {
			return ErrOrphan
		}
		current = n.Parent()
	}

	return nil
}

// IsDescendant reports whether n lies strictly inside ancestor's subtree
func IsDescendant(ancestor, n *model.Folder) bool {
	return ancestor.TreeID == n.TreeID && ancestor.Lft < n.Lft && n.Rght < ancestor.Rght
}

// DescendantCount is derived from the interval width
func DescendantCount(n *model.Folder) int {
	return (n.Rght - n.Lft - 1) / 2
}

// Descendants returns n's subtree in pre-order
func Descendants(all []*model.Folder, n *model.Folder, includeSelf bool) []*model.Folder {
	var out []*model.Folder
	for _, c := range all {
		if c.ID == n.ID {
			if includeSelf {
				out = append(out, c)
			}
			continue
		}
		if IsDescendant(n, c) {
			out = append(out, c)
		}
	}
	sortPreOrder(out)
	return out
}

// Ancestors returns the chain from the root down to n's parent (or n itself)
func Ancestors(all []*model.Folder, n *model.Folder, includeSelf bool) []*model.Folder {
	var out []*model.Folder
	for _, c := range all {
		if c.ID == n.ID {
			if includeSelf {
				out = append(out, c)
			}
			continue
		}
		if IsDescendant(c, n) {
			out = append(out, c)
		}
	}
	sortPreOrder(out)
	return out
}

// Siblings returns nodes sharing n's parent. Roots are siblings of each other.
func Siblings(all []*model.Folder, n *model.Folder, includeSelf bool) []*model.Folder {
	var out []*model.Folder
	for _, c := range all {
		if c.ID == n.ID && !includeSelf {
			continue
		}
		if c.Parent() == n.Parent() {
			out = append(out, c)
		}
	}
	sortPreOrder(out)
	return out
}

func Children(all []*model.Folder, n *model.Folder) []*model.Folder {
	var out []*model.Folder
	for _, c := range all {
		if c.Parent() == n.ID {
			out = append(out, c)
		}
	}
	sortPreOrder(out)
	return out
}

func sortPreOrder(nodes []*model.Folder) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].TreeID != nodes[j].TreeID {
			return nodes[i].TreeID < nodes[j].TreeID
		}
		return nodes[i].Lft < nodes[j].Lft
	})
}

func sortNodes(nodes []*model.Folder, less func(a, b *model.Folder) bool) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return less(nodes[i], nodes[j])
	})
}

// nameOrder compares names case-insensitively and falls back to the raw name
// and id so the order is total.
func nameOrder() func(a, b *model.Folder) bool {
	c := collate.New(language.Und, collate.IgnoreCase)
	return func(a, b *model.Folder) bool {
		if r := c.CompareString(a.Name, b.Name); r != 0 {
			return r < 0
		}
		if r := strings.Compare(a.Name, b.Name); r != 0 {
			return r < 0
		}
		return a.ID < b.ID
	}
}
