// Package capability holds the tool catalog: names, argument schemas, usage
// notes and the closed vocabularies the arguments draw from.
package capability

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/argos-research/argos/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrUnknownTool is returned for names outside the catalog.
var ErrUnknownTool = errors.New("unknown tool")

type ArgType string

const (
	ArgString     ArgType = "string"
	ArgStringList ArgType = "string_list"
)

// ArgSpec declares one tool argument.
type ArgSpec struct {
	Name        string
	Type        ArgType
	Required    bool
	Enum        []string
	Description string
}

// Category is the evidence bucket a tool's output lands in.
type Category string

const (
	CategoryGraph       Category = "graph_research"
	CategoryHumanRights Category = "human_rights"
	CategoryWeb         Category = "web"
	CategorySelfInfo    Category = "self_info"
	CategoryNews        Category = "news"
)

// ToolSpec describes a tool to the planner and the dispatcher.
type ToolSpec struct {
	Name     models.ToolName
	Group    string
	Summary  string
	UseWhen  string
	Notes    []string
	Args     []ArgSpec
	Category Category
}

// Arg returns the named argument spec.
func (s ToolSpec) Arg(name string) (ArgSpec, bool) {
	for _, a := range s.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgSpec{}, false
}

// InputSchema renders the argument declaration as a JSON Schema document.
func (s ToolSpec) InputSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(s.Args))
	required := make([]string, 0, len(s.Args))
	for _, a := range s.Args {
		var prop map[string]interface{}
		switch a.Type {
		case ArgStringList:
			items := map[string]interface{}{"type": "string"}
			if len(a.Enum) > 0 {
				items["enum"] = a.Enum
			}
			prop = map[string]interface{}{"type": "array", "items": items}
		default:
			prop = map[string]interface{}{"type": "string"}
			if len(a.Enum) > 0 {
				prop["enum"] = a.Enum
			}
		}
		props[a.Name] = prop
		if a.Required {
			required = append(required, a.Name)
		}
	}
	return map[string]interface{}{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Catalog is the read-only set of registered tools.
type Catalog struct {
	specs []ToolSpec
	index map[models.ToolName]int

	once    sync.Once
	schemas map[models.ToolName]*jsonschema.Schema
	err     error
}

// NewCatalog indexes specs; duplicate names are rejected.
func NewCatalog(specs []ToolSpec) (*Catalog, error) {
	c := &Catalog{specs: specs, index: make(map[models.ToolName]int, len(specs))}
	for i, s := range specs {
		if _, dup := c.index[s.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %s", s.Name)
		}
		c.index[s.Name] = i
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := NewCatalog(DefaultSpecs())
	if err != nil {
		panic(err)
	}
	return c
}

// Specs returns the tools in registration order.
func (c *Catalog) Specs() []ToolSpec {
	return append([]ToolSpec(nil), c.specs...)
}

// Names returns the tool names in registration order.
func (c *Catalog) Names() []models.ToolName {
	out := make([]models.ToolName, len(c.specs))
	for i, s := range c.specs {
		out[i] = s.Name
	}
	return out
}

// Lookup resolves a tool name exactly.
func (c *Catalog) Lookup(name string) (ToolSpec, bool) {
	i, ok := c.index[models.ToolName(strings.TrimSpace(name))]
	if !ok {
		return ToolSpec{}, false
	}
	return c.specs[i], true
}

// CategoryOf buckets a tool; names outside the catalog count as web research.
func (c *Catalog) CategoryOf(name models.ToolName) Category {
	if s, ok := c.Lookup(string(name)); ok && s.Category != "" {
		return s.Category
	}
	return CategoryWeb
}

func (c *Catalog) compile() {
	c.schemas = make(map[models.ToolName]*jsonschema.Schema, len(c.specs))
	compiler := jsonschema.NewCompiler()
	for _, s := range c.specs {
		raw, err := json.Marshal(s.InputSchema())
		if err != nil {
			c.err = fmt.Errorf("marshal schema %s: %w", s.Name, err)
			return
		}
		url := "argos://tools/" + string(s.Name) + ".json"
		if err := compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
			c.err = fmt.Errorf("add schema %s: %w", s.Name, err)
			return
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			c.err = fmt.Errorf("compile schema %s: %w", s.Name, err)
			return
		}
		c.schemas[s.Name] = schema
	}
}

// Validate checks args against the tool's input schema.
func (c *Catalog) Validate(name models.ToolName, args map[string]interface{}) error {
	c.once.Do(c.compile)
	if c.err != nil {
		return c.err
	}
	schema, ok := c.schemas[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	// the validator only understands decoded JSON values
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s args: %w", name, err)
	}
	return nil
}
