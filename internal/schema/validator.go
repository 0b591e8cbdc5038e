package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fulmenhq/navkit/internal/assets"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Path    string `json:"path,omitempty"` // e.g. "groups.1"
	Message string `json:"message"`
}

// Result holds the validation result.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Summary joins the errors into one line for logging.
func (r *Result) Summary() string {
	if r == nil || len(r.Errors) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Path+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

var (
	registryOnce sync.Once
	registry     map[string]*gojsonschema.Schema
	registryErr  error
)

func loadRegistry() {
	registry = make(map[string]*gojsonschema.Schema)
	for _, info := range assets.GetSchemaNames() {
		schemaBytes, ok := assets.GetSchema(info.Path)
		if !ok {
			continue
		}
		compiled, err := compile(schemaBytes)
		if err != nil {
			registryErr = fmt.Errorf("compile schema %s: %w", info.Name, err)
			return
		}
		registry[info.Name] = compiled
	}
}

// compile converts a YAML schema to JSON for gojsonschema.
func compile(schemaBytes []byte) (*gojsonschema.Schema, error) {
	var schemaData interface{}
	if err := yaml.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	jsonBytes, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
}

func lookup(schemaName string) (*gojsonschema.Schema, error) {
	registryOnce.Do(loadRegistry)
	if registryErr != nil {
		return nil, registryErr
	}
	s, ok := registry[schemaName]
	if !ok {
		return nil, fmt.Errorf("schema %s not found in registry", schemaName)
	}
	return s, nil
}

// Validate validates data (interface{}) against the named schema.
func Validate(data interface{}, schemaName string) (*Result, error) {
	s, err := lookup(schemaName)
	if err != nil {
		return nil, err
	}
	return run(s, gojsonschema.NewGoLoader(data))
}

// ValidateJSON validates raw JSON text against the named schema.
func ValidateJSON(doc []byte, schemaName string) (*Result, error) {
	s, err := lookup(schemaName)
	if err != nil {
		return nil, err
	}
	return run(s, gojsonschema.NewBytesLoader(doc))
}

func run(s *gojsonschema.Schema, doc gojsonschema.JSONLoader) (*Result, error) {
	result, err := s.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	res := &Result{Valid: result.Valid()}
	if !result.Valid() {
		for _, verr := range result.Errors() {
			field := verr.Field()
			if field == "" || field == "(root)" {
				field = "root"
			}
			res.Errors = append(res.Errors, ValidationError{
				Path:    field,
				Message: verr.Description(),
			})
		}
		sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Path < res.Errors[j].Path })
	}
	return res, nil
}
