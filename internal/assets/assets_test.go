package assets

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSchemasFS(t *testing.T) {
	data, err := fs.ReadFile(GetSchemasFS(), "navkit/v1.0.0/page.schema.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "groups")
}

func TestSchemaPath(t *testing.T) {
	p, ok := SchemaPath(ResolveResponseSchema)
	require.True(t, ok)
	data, ok := GetSchema(p)
	require.True(t, ok)
	assert.NotEmpty(t, data)

	_, ok = SchemaPath("nonexistent")
	assert.False(t, ok)
}

func TestGetSchemaNames(t *testing.T) {
	infos := GetSchemaNames()
	require.Len(t, infos, 2)
	assert.Equal(t, PageSchema, infos[0].Name)
	assert.Equal(t, ResolveResponseSchema, infos[1].Name)
	for _, info := range infos {
		assert.Equal(t, "draft-07", info.Draft)
	}
}
