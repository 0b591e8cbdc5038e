package assets

import (
	"embed"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed embedded_schemas
var schemaFS embed.FS

// Schema names known to navkit.
const (
	PageSchema            = "page-v1.0.0"
	ResolveResponseSchema = "resolve-response-v1.0.0"
)

var knownSchemas = map[string]string{
	PageSchema:            "embedded_schemas/navkit/v1.0.0/page.schema.yaml",
	ResolveResponseSchema: "embedded_schemas/navkit/v1.0.0/resolve-response.schema.yaml",
}

// SchemaInfo holds schema metadata.
type SchemaInfo struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Draft string `json:"draft"`
}

// GetSchema returns the embedded schema bytes by path relative to the module
// embed root (e.g. "embedded_schemas/navkit/v1.0.0/page.schema.yaml").
func GetSchema(relPath string) ([]byte, bool) {
	data, err := schemaFS.ReadFile(relPath)
	return data, err == nil
}

// SchemaPath resolves a schema name to its embedded path.
func SchemaPath(name string) (string, bool) {
	p, ok := knownSchemas[name]
	return p, ok
}

// GetSchemasFS exposes the embedded schema tree rooted at embedded_schemas.
func GetSchemasFS() fs.FS {
	if sub, err := fs.Sub(schemaFS, "embedded_schemas"); err == nil {
		return sub
	}
	return schemaFS
}

// GetSchemaNames returns the available schemas sorted by name.
func GetSchemaNames() []SchemaInfo {
	var infos []SchemaInfo
	for name, path := range knownSchemas {
		if _, ok := GetSchema(path); ok {
			infos = append(infos, SchemaInfo{Name: name, Path: path, Draft: detectDraft(path)})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func detectDraft(path string) string {
	data, ok := GetSchema(path)
	if !ok {
		return "unknown"
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "unknown"
	}
	v, _ := doc["$schema"].(string)
	switch {
	case strings.Contains(v, "draft-07"):
		return "draft-07"
	case strings.Contains(v, "2020-12"):
		return "2020-12"
	default:
		return "unknown"
	}
}
