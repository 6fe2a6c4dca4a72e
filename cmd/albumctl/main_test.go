package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"album/internal/domain"
	models "album/internal/domain/models/album"
	"album/internal/tree"
)

func testForest(t *testing.T) []*models.FolderTreeNode {
	t.Helper()
	root, vacation, beach := "r", "v", "b"
	forest := tree.Build([]models.Folder{
		{ID: root, Name: "root"},
		{ID: vacation, Name: "Vacation", ParentID: &root},
		{ID: beach, Name: "Beach", ParentID: &vacation},
	}, nil)
	require.Len(t, forest, 1)
	return forest
}

func TestResolveFolder(t *testing.T) {
	forest := testForest(t)

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{ref: "/", want: "r"},
		{ref: "/Vacation", want: "v"},
		{ref: "/Vacation/Beach/", want: "b"},
		{ref: "b", want: "b"},
		{ref: "/Family", wantErr: true},
		{ref: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := resolveFolder(forest, tt.ref)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFolder_EmptyForest(t *testing.T) {
	_, err := resolveFolder(nil, "/")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
