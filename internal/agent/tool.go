package agent

import (
	"context"
	"fmt"
	"sync"
)

// Tool describes a capability the model may invoke.
type Tool struct {
	// Name is the unique identifier for this tool
	Name string `json:"name"`

	// Description explains what the tool does and when to use it
	Description string `json:"description"`

	// InputSchema is a JSON Schema object describing the expected input
	InputSchema map[string]any `json:"input_schema"`
}

// ToolHandler executes a tool and returns its result as a string (usually JSON).
type ToolHandler func(ctx context.Context, input map[string]any) (string, error)

// ToolRegistry maps tool identifiers to strongly-typed handlers. Dispatch goes
// through Execute, which validates input against the tool's schema first.
type ToolRegistry struct {
	tools    []Tool
	handlers map[string]ToolHandler
	mu       sync.RWMutex
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		handlers: make(map[string]ToolHandler),
	}
}

// Register adds a tool with its handler.
func (r *ToolRegistry) Register(tool Tool, handler ToolHandler) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if handler == nil {
		return fmt.Errorf("handler is required for tool %s", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[tool.Name]; exists {
		return fmt.Errorf("tool already registered: %s", tool.Name)
	}

	r.tools = append(r.tools, tool)
	r.handlers[tool.Name] = handler
	return nil
}

// MustRegister registers a tool and panics on error. Registration happens at
// composition time, so a failure here is a programming error.
func (r *ToolRegistry) MustRegister(tool Tool, handler ToolHandler) {
	if err := r.Register(tool, handler); err != nil {
		panic(err)
	}
}

// Execute validates input against the tool's schema and runs its handler.
func (r *ToolRegistry) Execute(ctx context.Context, name string, input map[string]any) (string, error) {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	var schema map[string]any
	for _, t := range r.tools {
		if t.Name == name {
			schema = t.InputSchema
			break
		}
	}
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	if err := validateInput(schema, input); err != nil {
		return "", fmt.Errorf("invalid input for tool %s: %w", name, err)
	}

	return handler(ctx, input)
}

// validateInput checks the required fields of a JSON Schema object. The model
// occasionally omits required parameters; catching that here yields a clean
// tool_result error instead of a handler panic.
func validateInput(schema, input map[string]any) error {
	if schema == nil {
		return nil
	}
	required, ok := schema["required"].([]string)
	if !ok {
		// Schemas round-tripped through JSON carry []any instead.
		if anyList, ok := schema["required"].([]any); ok {
			for _, f := range anyList {
				if name, ok := f.(string); ok {
					required = append(required, name)
				}
			}
		}
	}
	for _, field := range required {
		if _, present := input[field]; !present {
			return fmt.Errorf("missing required field %q", field)
		}
	}
	return nil
}

// Tools returns a copy of all registered tools.
func (r *ToolRegistry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Tool, len(r.tools))
	copy(result, r.tools)
	return result
}

// HasTool checks if a tool is registered.
func (r *ToolRegistry) HasTool(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// ObjectSchema builds a JSON Schema object with the given properties.
func ObjectSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty creates a string property definition.
func StringProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}
