package album

import (
	"time"
)

// Folder is one node of an owner's folder hierarchy.
// Children are derived from ParentID and never stored.
type Folder struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	ParentID  *string   `json:"parent_id" db:"parent_id"` // NULL = the owner's root folder
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the folder is an owner's root
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}

// DeleteResult summarizes a subtree deletion
type DeleteResult struct {
	FolderIDs    []string `json:"folder_ids"`
	ItemCount    int      `json:"item_count"`
	BlobFailures int      `json:"blob_failures"`
}
