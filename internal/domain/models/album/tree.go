package album

// FolderTreeNode is a folder with its materialized children.
// Rebuilt in full from the flat listing on every fetch.
type FolderTreeNode struct {
	Folder
	Children []*FolderTreeNode `json:"children"`
}
