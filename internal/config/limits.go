package config

import (
	"slices"
	"strings"
)

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxFolderNameLength = 255

	// MaxItemTitleLength is the maximum length for item titles
	MaxItemTitleLength = 255

	// DefaultPageSize is the page size used when a listing asks for none
	DefaultPageSize = 6

	// DropTargetPrefix prefixes a folder id to form its drop target token
	DropTargetPrefix = "folderDropList-"

	// DefaultBlobDeleteConcurrency bounds parallel blob deletes in a cascade
	DefaultBlobDeleteConcurrency = 4

	// DefaultMaxUploadBytes caps a single photo upload
	DefaultMaxUploadBytes = 20 * MB
)

// AllowedPageSizes are the page sizes a listing may ask for
var AllowedPageSizes = []int{6, 8, 18, 24}

// AllowedImageExtensions are the upload extensions accepted, lower case
var AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// IsAllowedPageSize reports whether size is one of AllowedPageSizes
func IsAllowedPageSize(size int) bool {
	return slices.Contains(AllowedPageSizes, size)
}

// IsAllowedImageExtension reports whether ext (with dot, any case) may be uploaded
func IsAllowedImageExtension(ext string) bool {
	return slices.Contains(AllowedImageExtensions, strings.ToLower(ext))
}
