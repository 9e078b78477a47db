package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hupe1980/agentcore/core"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction describes the concrete function target of a tool call.
type ToolCallFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by flows.
type Request struct {
	Instructions string           `json:"instructions"` // System instructions for the model
	Contents     []core.Content   `json:"contents"`     // Conversation converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a streaming model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by flows and agents to drive
// generation. Generate returns a stream of responses plus an error channel;
// both are closed when generation ends. Transport failures surface as
// *core.ModelError on the error channel.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockResponse is one scripted turn of a MockModel. Each Generate call
// consumes the next scripted turn; text and function calls may be combined.
type MockResponse struct {
	Text          string
	FunctionCalls []core.FunctionCall
	Err           error
}

// MockModel is a lightweight in-memory Model for tests and examples. It
// supports two modes that compose:
//
//   - Script(...) queues turns consumed in order across Generate calls,
//     which is how tool-calling loops are exercised (first turn returns a
//     function call, second turn returns the final text).
//   - AddResponse registers prompt -> completion pairs used when the script
//     is exhausted.
//
// With neither configured it echoes the last user text.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	script    []MockResponse
	calls     int
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      "mock",
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Script appends scripted turns consumed in order by subsequent Generate calls.
func (m *MockModel) Script(turns ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, turns...)
}

// CallCount reports how many Generate calls have been made.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Generate implements Model. In streaming mode text is emitted as per-rune
// partial chunks before the final cumulative response, mirroring provider
// streaming behavior.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.calls++
	var scripted *MockResponse
	if len(m.script) > 0 {
		turn := m.script[0]
		m.script = m.script[1:]
		scripted = &turn
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if scripted != nil {
			m.emitScripted(ctx, req, *scripted, respCh, errCh)
			return
		}

		if len(req.Contents) == 0 {
			errCh <- &core.ModelError{Provider: "mock", Code: "empty_request", Err: fmt.Errorf("no contents provided")}
			return
		}
		last := req.Contents[len(req.Contents)-1]
		inputText := last.Text()

		m.mu.Lock()
		full := m.responses[inputText]
		m.mu.Unlock()
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}

		if !m.streamText(ctx, req, full, respCh, errCh) {
			return
		}
		respCh <- Response{
			Partial:      false,
			Content:      core.NewTextContent("assistant", full),
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

func (m *MockModel) emitScripted(ctx context.Context, req Request, turn MockResponse, respCh chan<- Response, errCh chan<- error) {
	if turn.Err != nil {
		errCh <- turn.Err
		return
	}

	if turn.Text != "" {
		if !m.streamText(ctx, req, turn.Text, respCh, errCh) {
			return
		}
	}

	parts := make([]core.Part, 0, len(turn.FunctionCalls)+1)
	if turn.Text != "" {
		parts = append(parts, core.TextPart{Text: turn.Text})
	}
	for _, fc := range turn.FunctionCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}

	finish := "stop"
	if len(turn.FunctionCalls) > 0 {
		finish = "tool_calls"
	}
	respCh <- Response{
		Partial:      false,
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: finish,
	}
}

// streamText emits per-rune partial chunks when streaming is requested.
// Returns false if the context was cancelled.
func (m *MockModel) streamText(ctx context.Context, req Request, full string, respCh chan<- Response, errCh chan<- error) bool {
	if !req.Stream {
		return true
	}
	for _, r := range full {
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return false
		case respCh <- Response{
			Partial: true,
			Content: core.NewTextContent("assistant", string(r)),
		}:
		}
	}
	return true
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

var _ Model = (*MockModel)(nil)
