package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestListJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.json"), "{}")
	writeFile(t, filepath.Join(dir, "a.json"), "{}")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "nested", "c.json"), "{}")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dir.json"), 0o755))

	files, err := ListJSON(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}, files)
}

func TestListPatternsDeduplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "x.webp"), "1")
	writeFile(t, filepath.Join(dir, "y.png"), "2")

	files, err := List(dir, "*.webp", "*.png", "x.*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "x.webp"), filepath.Join(dir, "y.png")}, files)
}

func TestReadStripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	writeFile(t, path, "\xEF\xBB\xBF{\"a\":1}")

	data, err := ReadValid(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	writeFile(t, path, "{broken")
	_, err = ReadValid(path)
	assert.Error(t, err)
}

func TestWriteReindents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, Write(path, []byte(`{"z":1,"a":{"名":"<b>"}}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"z\": 1,\n  \"a\": {\n    \"名\": \"<b>\"\n  }\n}", string(data))
}

func TestResourcesAllShapes(t *testing.T) {
	doc := []byte(`{
  "resources": [
    {"name": "Flat", "url": "https://flat.example", "icon": "/images/logos/flat.webp"}
  ],
  "categories": [
    {
      "resources": [{"name": "Cat", "official_site": "https://cat.example"}],
      "tabs": [
        {"list": [{"name": "Tab0"}, "skip-me", {"name": "Tab2", "icon": ""}]}
      ]
    },
    {"name": "empty"}
  ]
}`)

	got := Resources(doc)
	require.Len(t, got, 4)

	assert.Equal(t, "resources.0", got[0].Path)
	assert.Equal(t, "https://flat.example", got[0].SourceURL())
	assert.Equal(t, "/images/logos/flat.webp", got[0].Icon)

	assert.Equal(t, "categories.0.resources.0", got[1].Path)
	assert.Equal(t, "https://cat.example", got[1].SourceURL())

	assert.Equal(t, "categories.0.tabs.0.list.0", got[2].Path)
	assert.Equal(t, "", got[2].SourceURL())

	assert.Equal(t, "categories.0.tabs.0.list.2", got[3].Path)
	assert.Equal(t, "categories.0.tabs.0.list.2.icon", got[3].IconPath())
}

func TestDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "home"), 0o755))
	writeFile(t, filepath.Join(dir, "file.json"), "{}")

	dirs, err := Dirs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "sub1"}, dirs)
}
