package tree

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "album/internal/domain/models/album"
)

func strPtr(s string) *string { return &s }

func folder(id string, parent *string) models.Folder {
	return models.Folder{ID: id, OwnerID: "owner-1", ParentID: parent, Name: "f-" + id}
}

func ids(folders []models.Folder) []string {
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		out = append(out, f.ID)
	}
	sort.Strings(out)
	return out
}

func TestBuild_SingleRootRoundTrip(t *testing.T) {
	// Deliberately unordered: children before their parents
	input := []models.Folder{
		folder("c", strPtr("b")),
		folder("b", strPtr("root")),
		folder("d", strPtr("root")),
		folder("root", nil),
		folder("e", strPtr("c")),
	}

	forest := Build(input, nil)
	require.Len(t, forest, 1)
	assert.Equal(t, "root", forest[0].ID)
	assert.Equal(t, 5, Count(forest))

	assert.Equal(t, ids(input), ids(Flatten(forest)))

	c := Find(forest, "c")
	require.NotNil(t, c)
	require.Len(t, c.Children, 1)
	assert.Equal(t, "e", c.Children[0].ID)
}

func TestBuild_DropsDanglingParent(t *testing.T) {
	input := []models.Folder{
		folder("root", nil),
		folder("a", strPtr("root")),
		folder("orphan", strPtr("deleted-meanwhile")),
		folder("orphan-child", strPtr("orphan")),
	}

	forest := Build(input, nil)
	require.Len(t, forest, 1)

	assert.Nil(t, Find(forest, "orphan"))
	assert.Nil(t, Find(forest, "orphan-child"))
	assert.Equal(t, []string{"a", "root"}, ids(Flatten(forest)))
}

func TestBuild_EmptyAndMultipleRoots(t *testing.T) {
	assert.Empty(t, Build(nil, nil))

	forest := Build([]models.Folder{folder("r1", nil), folder("r2", nil)}, nil)
	assert.Len(t, forest, 2)
}

func TestBuild_LeafHasEmptyChildren(t *testing.T) {
	forest := Build([]models.Folder{folder("root", nil)}, nil)
	require.Len(t, forest, 1)
	assert.NotNil(t, forest[0].Children)
	assert.Empty(t, forest[0].Children)
}

func TestWalk_SkipChildren(t *testing.T) {
	forest := Build([]models.Folder{
		folder("root", nil),
		folder("a", strPtr("root")),
		folder("a1", strPtr("a")),
		folder("b", strPtr("root")),
	}, nil)

	var visited []string
	Walk(forest, func(node *models.FolderTreeNode) bool {
		visited = append(visited, node.ID)
		return node.ID != "a"
	})
	assert.Equal(t, []string{"root", "a", "b"}, visited)
}

func TestDescendants(t *testing.T) {
	input := []models.Folder{
		folder("root", nil),
		folder("a", strPtr("root")),
		folder("a1", strPtr("a")),
		folder("a2", strPtr("a")),
		folder("a1x", strPtr("a1")),
		folder("b", strPtr("root")),
	}

	tests := []struct {
		name   string
		rootID string
		want   []string
	}{
		{"leaf", "b", []string{"b"}},
		{"subtree", "a", []string{"a", "a1", "a1x", "a2"}},
		{"whole tree", "root", []string{"a", "a1", "a1x", "a2", "b", "root"}},
		{"missing", "nope", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Descendants(input, tt.rootID)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Equal(t, tt.rootID, got[0], "root comes first")
			sort.Strings(got)
			assert.Equal(t, tt.want, got)
		})
	}
}
