package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDataRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "setA", "sub"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "blacklisted"), 0o755))

	writeFile(t, filepath.Join(root, "setA", "c101.vrp"), "instance-data")
	writeFile(t, filepath.Join(root, "setA", "sub", "c101.sol"), "solution-data")
	writeFile(t, filepath.Join(root, "setA", "c201.txt"), "another-instance")
	writeFile(t, filepath.Join(root, "blacklisted", "ignored.vrp"), "x")

	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIndex_Datasets_ExcludesBlacklist(t *testing.T) {
	root := setupDataRoot(t)
	idx := New(root, []string{"blacklisted"})

	datasets, err := idx.Datasets()
	require.NoError(t, err)
	assert.Equal(t, []string{"setA"}, datasets)
}

func TestIndex_List_WalksNestedDirectories(t *testing.T) {
	root := setupDataRoot(t)
	idx := New(root, nil)

	entries, err := idx.List("setA", "", SortByName, OrderAsc, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestIndex_List_FiltersByNameSubstring(t *testing.T) {
	root := setupDataRoot(t)
	idx := New(root, nil)

	entries, err := idx.List("setA", "c101", SortByName, OrderAsc, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestIndex_List_Paginates(t *testing.T) {
	root := setupDataRoot(t)
	idx := New(root, nil)

	entries, err := idx.List("setA", "", SortByName, OrderAsc, 1, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestIndex_List_UnknownDatasetFails(t *testing.T) {
	root := setupDataRoot(t)
	idx := New(root, nil)

	_, err := idx.List("missing", "", SortByName, OrderAsc, 0, 0)
	require.Error(t, err)
}

func TestIndex_ListFiltered_FiltersByExtension(t *testing.T) {
	root := setupDataRoot(t)
	idx := New(root, nil)

	entries, err := idx.ListFiltered("setA", ListOptions{Exts: []string{".sol"}, Sort: SortByName, Order: OrderAsc})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c101.sol", entries[0].Name)
}

func TestIndex_ListFiltered_FiltersByKind(t *testing.T) {
	root := setupDataRoot(t)
	idx := New(root, nil)

	entries, err := idx.ListFiltered("setA", ListOptions{Kind: "instance", Sort: SortByName, Order: OrderAsc})
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.ElementsMatch(t, []string{"c101.vrp", "c201.txt"}, names)
}

func TestIndex_ListFiltered_PaginatesAfterFilter(t *testing.T) {
	root := setupDataRoot(t)
	idx := New(root, nil)

	entries, err := idx.ListFiltered("setA", ListOptions{Kind: "instance", Sort: SortByName, Order: OrderAsc, Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c101.vrp", entries[0].Name)
}

func TestIndex_FindPair_MatchesStemCaseInsensitively(t *testing.T) {
	root := setupDataRoot(t)
	idx := New(root, nil)

	instance, solution, err := idx.FindPair("setA", "C101")
	require.NoError(t, err)
	require.NotNil(t, instance)
	require.NotNil(t, solution)
	assert.Equal(t, "c101.vrp", instance.Name)
	assert.Equal(t, "c101.sol", solution.Name)
}

func TestIndex_FindPair_NoMatchFails(t *testing.T) {
	root := setupDataRoot(t)
	idx := New(root, nil)

	_, _, err := idx.FindPair("setA", "nonexistent")
	require.Error(t, err)
}
