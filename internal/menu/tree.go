// Package menu implements the hierarchical navigation forest: id-indexed
// structural operations and the permission-based filter.
package menu

import (
	"fmt"
	"strconv"

	"github.com/gatehouse-rbac/gatehouse/internal/rbac"
	"github.com/gatehouse-rbac/gatehouse/internal/shared"
)

// normalizeID canonicalizes numeric-looking ids so "01" and "1" compare
// equal; anything non-numeric compares by exact string.
func normalizeID(raw string) string {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return raw
}

// index maps every node id to the node and its parent, built once per
// snapshot. Node ids are unique across the whole forest, so the first
// occurrence wins and lookups need no tree walk.
type index struct {
	nodes   map[string]*rbac.MenuNode
	parents map[string]*rbac.MenuNode
}

func buildIndex(forest rbac.MenuForest) *index {
	idx := &index{
		nodes:   make(map[string]*rbac.MenuNode),
		parents: make(map[string]*rbac.MenuNode),
	}
	var walk func(nodes rbac.MenuForest, parent *rbac.MenuNode)
	walk = func(nodes rbac.MenuForest, parent *rbac.MenuNode) {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			key := normalizeID(n.ID)
			if _, seen := idx.nodes[key]; !seen {
				idx.nodes[key] = n
				idx.parents[key] = parent
			}
			walk(n.Children, n)
		}
	}
	walk(forest, nil)
	return idx
}

// Find returns the first node whose id matches, by depth-first order.
func Find(forest rbac.MenuForest, id string) (*rbac.MenuNode, error) {
	n, ok := buildIndex(forest).nodes[normalizeID(id)]
	if !ok {
		return nil, fmt.Errorf("menu %s: %w", id, shared.ErrNotFound)
	}
	return n, nil
}

// Insert appends node to the root sequence when parentID is empty, otherwise
// to the children of the matching parent. The forest is unchanged when the
// parent does not resolve.
func Insert(forest rbac.MenuForest, node *rbac.MenuNode, parentID string) (rbac.MenuForest, error) {
	if parentID == "" {
		return append(forest, node), nil
	}
	parent, err := Find(forest, parentID)
	if err != nil {
		return forest, err
	}
	if parent.Children == nil {
		parent.Children = rbac.MenuForest{}
	}
	parent.Children = append(parent.Children, node)
	return forest, nil
}

// NodePatch carries the updatable fields; nil fields are no-ops, never
// deletions.
type NodePatch struct {
	Title      *string `json:"title"`
	Path       *string `json:"path"`
	Icon       *string `json:"icon"`
	Component  *string `json:"component"`
	Permission *string `json:"permission"`
	Type       *string `json:"type"`
}

// Update shallow-merges patch into the node with the given id.
func Update(forest rbac.MenuForest, id string, patch NodePatch) (*rbac.MenuNode, error) {
	node, err := Find(forest, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		node.Title = *patch.Title
	}
	if patch.Path != nil {
		node.Path = *patch.Path
	}
	if patch.Icon != nil {
		node.Icon = *patch.Icon
	}
	if patch.Component != nil {
		node.Component = *patch.Component
	}
	if patch.Permission != nil {
		node.Permission = *patch.Permission
	}
	if patch.Type != nil {
		node.Type = *patch.Type
	}
	return node, nil
}

// Remove splices the node and its whole subtree out of its parent's child
// sequence, or out of the root sequence.
func Remove(forest rbac.MenuForest, id string) (rbac.MenuForest, error) {
	idx := buildIndex(forest)
	key := normalizeID(id)
	node, ok := idx.nodes[key]
	if !ok {
		return forest, fmt.Errorf("menu %s: %w", id, shared.ErrNotFound)
	}
	parent := idx.parents[key]
	if parent == nil {
		return splice(forest, node), nil
	}
	parent.Children = splice(parent.Children, node)
	return forest, nil
}

func splice(nodes rbac.MenuForest, target *rbac.MenuNode) rbac.MenuForest {
	out := nodes[:0]
	for _, n := range nodes {
		if n != target {
			out = append(out, n)
		}
	}
	return out
}

// NextID returns the successor of the largest numeric id anywhere in the
// forest as a string, or "1" when no numeric ids exist. Non-numeric ids are
// ignored and never produced.
func NextID(forest rbac.MenuForest) string {
	var max int64
	for key := range buildIndex(forest).nodes {
		if n, err := strconv.ParseInt(key, 10, 64); err == nil && n > max {
			max = n
		}
	}
	return strconv.FormatInt(max+1, 10)
}

// Filter produces a pruned copy of the forest: a node is kept when it has no
// permission gate or its gate is a member of permissions, and its children
// are filtered the same way. Sibling order is preserved. Administrators see
// the forest unchanged.
func Filter(forest rbac.MenuForest, permissions []string, isAdmin bool) rbac.MenuForest {
	if isAdmin {
		return forest
	}
	granted := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		granted[p] = struct{}{}
	}
	return filterNodes(forest, granted)
}

func filterNodes(nodes rbac.MenuForest, granted map[string]struct{}) rbac.MenuForest {
	out := make(rbac.MenuForest, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Permission != "" {
			if _, ok := granted[n.Permission]; !ok {
				continue
			}
		}
		kept := *n
		kept.Children = filterNodes(n.Children, granted)
		out = append(out, &kept)
	}
	return out
}
