// Package tools maps model tool calls to local handlers and wraps every
// outcome into a function response.
package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

// ErrToolNotFound is the output returned for an unknown tool name.
const ErrToolNotFound = "Error: Tool not found."

// DefaultCallTimeout bounds a single tool invocation.
const DefaultCallTimeout = 2 * time.Minute

// Name identifies a tool exposed to the model
type Name string

// Handler executes a tool. A returned error is reported to the model as text.
type Handler func(ctx context.Context, args Args) (string, error)

// Tool pairs a declaration with its handler
type Tool struct {
	Declaration *genai.FunctionDeclaration
	Handler     Handler
}

// Table is an immutable name to tool mapping
type Table struct {
	tools   map[Name]Tool
	order   []Name
	timeout time.Duration
	logger  *zap.Logger
}

// NewTable builds a table and rejects incomplete or duplicate entries.
func NewTable(logger *zap.Logger, tools ...Tool) (*Table, error) {
	t := &Table{
		tools:   make(map[Name]Tool, len(tools)),
		timeout: DefaultCallTimeout,
		logger:  logger,
	}
	for _, tool := range tools {
		if tool.Declaration == nil || tool.Declaration.Name == "" {
			return nil, fmt.Errorf("tool declaration is required")
		}
		name := Name(tool.Declaration.Name)
		if tool.Handler == nil {
			return nil, fmt.Errorf("tool %s has no handler", name)
		}
		if _, exists := t.tools[name]; exists {
			return nil, fmt.Errorf("tool %s registered twice", name)
		}
		t.tools[name] = tool
		t.order = append(t.order, name)
	}
	return t, nil
}

// WithTimeout returns a copy of the table using a different per-call timeout
func (t *Table) WithTimeout(d time.Duration) *Table {
	clone := *t
	clone.timeout = d
	return &clone
}

// Declarations returns the tool declarations in registration order
func (t *Table) Declarations() []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.tools[name].Declaration)
	}
	return out
}

// Names returns the registered tool names, sorted
func (t *Table) Names() []Name {
	names := make([]Name, len(t.order))
	copy(names, t.order)
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Has reports whether name is registered
func (t *Table) Has(name Name) bool {
	_, ok := t.tools[name]
	return ok
}

// Dispatch runs one call and always returns a response carrying the call's id.
func (t *Table) Dispatch(ctx context.Context, call *genai.FunctionCall) *genai.FunctionResponse {
	output := t.invoke(ctx, call)
	return &genai.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: map[string]any{"result": map[string]any{"output": output}},
	}
}

// DispatchAll runs the calls concurrently and returns one response per call in input order.
func (t *Table) DispatchAll(ctx context.Context, calls []*genai.FunctionCall) []*genai.FunctionResponse {
	responses := make([]*genai.FunctionResponse, len(calls))
	var g errgroup.Group
	for i, call := range calls {
		if call == nil {
			call = &genai.FunctionCall{}
		}
		g.Go(func() error {
			responses[i] = t.Dispatch(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return responses
}

func (t *Table) invoke(ctx context.Context, call *genai.FunctionCall) (output string) {
	tool, ok := t.tools[Name(call.Name)]
	if !ok {
		t.logger.Warn("Unknown tool requested", zap.String("tool", call.Name))
		return ErrToolNotFound
	}

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Tool panicked",
				zap.String("tool", call.Name),
				zap.Any("panic", r))
			output = fmt.Sprintf("Error: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	result, err := tool.Handler(callCtx, Args(call.Args))
	if err != nil {
		t.logger.Warn("Tool failed",
			zap.String("tool", call.Name),
			zap.String("callID", call.ID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return "Error: " + err.Error()
	}

	t.logger.Info("Tool completed",
		zap.String("tool", call.Name),
		zap.String("callID", call.ID),
		zap.Duration("duration", time.Since(start)))
	return result
}
