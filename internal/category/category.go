package category

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aescanero/dago-status-formatter/internal/render"
	"gopkg.in/yaml.v3"
)

// Known statuses
const (
	Done     = "done"
	NotDone  = "not_done"
	Canceled = "canceled"
)

// Statuses lists the recognised statuses in their canonical order.
var Statuses = []string{Done, NotDone, Canceled}

// ErrUnknownCategory is returned for definitions outside Statuses.
var ErrUnknownCategory = errors.New("unknown category")

//go:embed categories.yaml
var builtin []byte

// Category is everything needed to classify and render one status.
type Category struct {
	Name          string
	SystemMessage string
	SchemaName    string
	Schema        json.RawMessage
	Template      string
	Fields        []string
}

// Registry maps statuses to categories
type Registry struct {
	byName map[string]*Category
}

type fileFormat struct {
	Categories []definition `yaml:"categories"`
}

type definition struct {
	Name          string                 `yaml:"name"`
	SchemaName    string                 `yaml:"schema_name"`
	SystemMessage string                 `yaml:"system_message"`
	Schema        map[string]interface{} `yaml:"schema"`
	Template      string                 `yaml:"template"`
}

// Default returns the registry built from the embedded definitions.
func Default() (*Registry, error) {
	return Parse(builtin)
}

// Load reads definitions from path, or returns Default when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}
	return Parse(raw)
}

// Parse builds a registry from YAML and checks that every status is defined
// exactly once and that every template only uses schema fields.
func Parse(raw []byte) (*Registry, error) {
	var file fileFormat
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse categories: %w", err)
	}

	reg := &Registry{byName: make(map[string]*Category, len(Statuses))}
	for _, def := range file.Categories {
		c, err := def.build()
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", def.Name, err)
		}
		if _, dup := reg.byName[c.Name]; dup {
			return nil, fmt.Errorf("category %q defined twice", c.Name)
		}
		reg.byName[c.Name] = c
	}

	for _, name := range Statuses {
		if _, ok := reg.byName[name]; !ok {
			return nil, fmt.Errorf("category %q is not defined", name)
		}
	}

	return reg, nil
}

func (d definition) build() (*Category, error) {
	if !isStatus(d.Name) {
		return nil, ErrUnknownCategory
	}
	if strings.TrimSpace(d.SystemMessage) == "" {
		return nil, fmt.Errorf("system_message is required")
	}
	if d.Template == "" {
		return nil, fmt.Errorf("template is required")
	}
	if d.SchemaName == "" {
		return nil, fmt.Errorf("schema_name is required")
	}
	if err := render.Validate(d.Template); err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}

	fields, err := requiredFields(d.Schema)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f] = true
	}
	for _, name := range render.Blocks(d.Template) {
		if !allowed[name] {
			return nil, fmt.Errorf("template block %q is not a schema field", name)
		}
	}

	schema, err := json.Marshal(d.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	return &Category{
		Name:          d.Name,
		SystemMessage: d.SystemMessage,
		SchemaName:    d.SchemaName,
		Schema:        schema,
		Template:      d.Template,
		Fields:        fields,
	}, nil
}

// requiredFields returns the schema's required property names, each of
// which must be declared as an array.
func requiredFields(schema map[string]interface{}) ([]string, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	required, _ := schema["required"].([]interface{})
	if len(required) == 0 {
		return nil, fmt.Errorf("schema must list required fields")
	}
	props, _ := schema["properties"].(map[string]interface{})

	fields := make([]string, 0, len(required))
	for _, r := range required {
		name, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("schema required entries must be strings")
		}
		prop, _ := props[name].(map[string]interface{})
		if prop == nil || prop["type"] != "array" {
			return nil, fmt.Errorf("schema field %q must be an array", name)
		}
		fields = append(fields, name)
	}
	return fields, nil
}

func isStatus(name string) bool {
	for _, s := range Statuses {
		if s == name {
			return true
		}
	}
	return false
}

// Lookup returns the category for status
func (r *Registry) Lookup(status string) (*Category, bool) {
	c, ok := r.byName[status]
	return c, ok
}

// Names returns the statuses in canonical order.
func (r *Registry) Names() []string {
	names := make([]string, len(Statuses))
	copy(names, Statuses)
	return names
}
