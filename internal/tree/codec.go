// Package tree converts between an owner's flat folder listing and the
// nested forest the UI renders. Pure, no I/O.
package tree

import (
	"log/slog"

	models "album/internal/domain/models/album"
)

// Build reconstructs the forest rooted at every folder without a parent.
// A folder whose parent is not in the listing is dropped (logged as a
// consistency warning); its own descendants become unreachable with it.
func Build(folders []models.Folder, logger *slog.Logger) []*models.FolderTreeNode {
	index := make(map[string]*models.FolderTreeNode, len(folders))

	// First pass: one node per record
	for _, folder := range folders {
		index[folder.ID] = &models.FolderTreeNode{
			Folder:   folder,
			Children: []*models.FolderTreeNode{},
		}
	}

	// Second pass: attach to parents in input order
	roots := make([]*models.FolderTreeNode, 0, 1)
	for _, folder := range folders {
		node := index[folder.ID]
		if folder.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := index[*folder.ParentID]
		if !ok {
			if logger != nil {
				logger.Warn("dropping folder with dangling parent",
					"folder_id", folder.ID,
					"parent_id", *folder.ParentID,
					"owner_id", folder.OwnerID,
				)
			}
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots
}

// Flatten returns the forest as a pre-order list of folders
func Flatten(forest []*models.FolderTreeNode) []models.Folder {
	var out []models.Folder
	Walk(forest, func(node *models.FolderTreeNode) bool {
		out = append(out, node.Folder)
		return true
	})
	return out
}

// Walk visits every node pre-order. Returning false from fn skips the
// node's children.
func Walk(forest []*models.FolderTreeNode, fn func(node *models.FolderTreeNode) bool) {
	for _, node := range forest {
		if node == nil {
			continue
		}
		if fn(node) {
			Walk(node.Children, fn)
		}
	}
}

// Find returns the node with the given id, nil if it is not in the forest
func Find(forest []*models.FolderTreeNode, id string) *models.FolderTreeNode {
	var found *models.FolderTreeNode
	Walk(forest, func(node *models.FolderTreeNode) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the forest
func Count(forest []*models.FolderTreeNode) int {
	n := 0
	Walk(forest, func(*models.FolderTreeNode) bool {
		n++
		return true
	})
	return n
}

// Descendants computes the closure below rootID from a flat listing by
// repeatedly expanding children. rootID is included first. Returns nil if
// rootID is not in the listing.
func Descendants(folders []models.Folder, rootID string) []string {
	children := make(map[string][]string, len(folders))
	present := false
	for _, folder := range folders {
		if folder.ID == rootID {
			present = true
		}
		if folder.ParentID != nil {
			children[*folder.ParentID] = append(children[*folder.ParentID], folder.ID)
		}
	}
	if !present {
		return nil
	}

	seen := map[string]bool{rootID: true}
	out := []string{rootID}
	for frontier := []string{rootID}; len(frontier) > 0; {
		var next []string
		for _, id := range frontier {
			for _, child := range children[id] {
				if seen[child] {
					continue
				}
				seen[child] = true
				out = append(out, child)
				next = append(next, child)
			}
		}
		frontier = next
	}
	return out
}
