// Package tools defines the retrieval instrument contract and the library
// the dispatcher resolves planned calls against.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/argos-research/argos/models"
)

// Tool is one retrieval instrument. Implementations never touch the citation
// tracker; they return citations by value in the result.
type Tool interface {
	Name() models.ToolName
	Call(ctx context.Context, args map[string]interface{}) (models.ToolResult, error)
}

// Func adapts a function to Tool.
type Func struct {
	ToolName models.ToolName
	Fn       func(ctx context.Context, args map[string]interface{}) (models.ToolResult, error)
}

func (f Func) Name() models.ToolName { return f.ToolName }

func (f Func) Call(ctx context.Context, args map[string]interface{}) (models.ToolResult, error) {
	return f.Fn(ctx, args)
}

// Library maps tool names to implementations.
type Library struct {
	tools map[models.ToolName]Tool
}

func NewLibrary(tools ...Tool) *Library {
	l := &Library{tools: make(map[models.ToolName]Tool, len(tools))}
	for _, t := range tools {
		l.Register(t)
	}
	return l
}

// Register adds or replaces t.
func (l *Library) Register(t Tool) {
	l.tools[t.Name()] = t
}

func (l *Library) Get(name models.ToolName) (Tool, bool) {
	t, ok := l.tools[name]
	return t, ok
}

// Names returns the registered names sorted.
func (l *Library) Names() []models.ToolName {
	out := make([]models.ToolName, 0, len(l.tools))
	for n := range l.tools {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String reads a string argument.
func String(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	}
	return ""
}

// StringList reads a list argument, accepting []string or decoded JSON arrays.
func StringList(args map[string]interface{}, key string) []string {
	var out []string
	switch v := args[key].(type) {
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case string:
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}
