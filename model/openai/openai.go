// Package openai backs model.Model with the OpenAI Chat Completions API,
// covering streaming, function calling and token usage reporting. Normalized
// request contents are translated into the SDK's message unions on the way
// in and back into parts on the way out.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/hupe1980/agentcore/core"
	"github.com/hupe1980/agentcore/model"
)

// Options configure the OpenAI model adapter. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model
// interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client, configured
// from the environment (OPENAI_API_KEY).
func NewModel(optFns ...func(o *Options)) *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation. Transport
// failures surface as *core.ModelError on the error channel.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		params := m.chatParams(req)
		if req.Stream {
			m.streamCompletion(ctx, params, out, errCh)
			return
		}
		m.completeOnce(ctx, params, out, errCh)
	}()
	return out, errCh
}

// chatParams assembles the full request: instructions, conversation history
// with tool results slotted after their originating calls, and tool schemas.
func (m *Model) chatParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            m.chatMessages(req),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, td := range req.Tools {
			tools = append(tools, openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        td.Function.Name,
					Description: openai.String(td.Function.Description),
					Parameters:  td.Function.Parameters,
				},
			})
		}
		params.Tools = tools
	}
	return params
}

// chatMessages flattens the normalized history into OpenAI message unions.
// Tool role contents are not messages of their own: their payloads are
// indexed by call ID up front and emitted as tool messages directly after
// the assistant turn that issued the call, which is the ordering the API
// requires. Results whose call never appears are appended at the end.
func (m *Model) chatMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	pending, pendingOrder := indexToolResults(req.Contents)

	var msgs []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		msgs = append(msgs, openai.SystemMessage(req.Instructions))
	}
	for _, c := range req.Contents {
		switch c.Role {
		case "tool":
			// handled via the pending index
		case "system":
			msgs = append(msgs, openai.SystemMessage(c.Text()))
		case "user":
			msgs = append(msgs, openai.UserMessage(c.Text()))
		case "assistant":
			msgs = append(msgs, assistantTurn(c, pending)...)
		default:
			if t := c.Text(); t != "" {
				msgs = append(msgs, openai.UserMessage(t))
			}
		}
	}
	for _, id := range pendingOrder {
		if payload, ok := pending[id]; ok {
			msgs = append(msgs, openai.ToolMessage(payload, id))
		}
	}
	return msgs
}

// indexToolResults maps tool call IDs to their rendered result payloads,
// keeping first-seen order so stragglers can be flushed deterministically.
func indexToolResults(contents []core.Content) (map[string]string, []string) {
	pending := map[string]string{}
	var order []string
	for _, c := range contents {
		if c.Role != "tool" {
			continue
		}
		for _, p := range c.Parts {
			fr, ok := p.(core.FunctionResponsePart)
			if !ok || fr.FunctionResponse.ID == "" {
				continue
			}
			if _, dup := pending[fr.FunctionResponse.ID]; dup {
				continue
			}
			pending[fr.FunctionResponse.ID] = renderToolResult(fr.FunctionResponse)
			order = append(order, fr.FunctionResponse.ID)
		}
	}
	return pending, order
}

// renderToolResult turns a function response (or its error) into the text
// body the API expects in a tool message.
func renderToolResult(fr core.FunctionResponse) string {
	if fr.Error != "" {
		return fmt.Sprintf(`{"error": %q}`, fr.Error)
	}
	if s, ok := fr.Response.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", fr.Response)
}

// assistantTurn converts one assistant content into its message(s): a plain
// assistant message when there are no tool calls, otherwise an assistant
// message carrying the calls followed by any already-known results.
func assistantTurn(c core.Content, pending map[string]string) []openai.ChatCompletionMessageParamUnion {
	var calls []openai.ChatCompletionMessageToolCallParam
	var ids []string
	for _, p := range c.Parts {
		fc, ok := p.(core.FunctionCallPart)
		if !ok {
			continue
		}
		calls = append(calls, openai.ChatCompletionMessageToolCallParam{
			ID:   fc.FunctionCall.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      fc.FunctionCall.Name,
				Arguments: fc.FunctionCall.Arguments,
			},
		})
		ids = append(ids, fc.FunctionCall.ID)
	}
	if len(calls) == 0 {
		return []openai.ChatCompletionMessageParamUnion{openai.AssistantMessage(c.Text())}
	}

	msgs := []openai.ChatCompletionMessageParamUnion{{
		OfAssistant: &openai.ChatCompletionAssistantMessageParam{
			Role:      "assistant",
			ToolCalls: calls,
		},
	}}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if payload, ok := pending[id]; ok {
			msgs = append(msgs, openai.ToolMessage(payload, id))
			delete(pending, id)
		}
	}
	return msgs
}

// callBuilder accumulates one tool call across streaming chunks; arguments
// arrive as JSON fragments that must be concatenated.
type callBuilder struct {
	id, name string
	args     strings.Builder
}

// streamCompletion drives a streaming request. Text deltas are forwarded
// immediately as partial responses; tool calls are only surfaced once, fully
// assembled, in the final response alongside the accumulated text.
func (m *Model) streamCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)

	var text strings.Builder
	calls := map[int64]*callBuilder{}

	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				text.WriteString(choice.Delta.Content)
				out <- model.Response{
					Partial: true,
					Content: core.NewTextContent("assistant", choice.Delta.Content),
				}
			}
			for _, tc := range choice.Delta.ToolCalls {
				cb := calls[tc.Index]
				if cb == nil {
					cb = &callBuilder{}
					calls[tc.Index] = cb
				}
				if tc.ID != "" {
					cb.id = tc.ID
				}
				if tc.Function.Name != "" {
					cb.name = tc.Function.Name
				}
				cb.args.WriteString(tc.Function.Arguments)
			}
			if choice.FinishReason == "" {
				continue
			}

			parts := make([]core.Part, 0, len(calls)+1)
			if text.Len() > 0 {
				parts = append(parts, core.TextPart{Text: text.String()})
			}
			for _, cb := range calls {
				parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
					ID:        cb.id,
					Name:      cb.name,
					Arguments: cb.args.String(),
				}})
			}
			out <- model.Response{
				Content:      core.Content{Role: "assistant", Parts: parts},
				FinishReason: choice.FinishReason,
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- &core.ModelError{Provider: "openai", Code: "stream_error", Err: err}
	}
}

// completeOnce performs a blocking completion and emits a single final
// response with usage accounting.
func (m *Model) completeOnce(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- &core.ModelError{Provider: "openai", Code: "api_error", Err: err}
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- &core.ModelError{Provider: "openai", Code: "empty_response", Err: fmt.Errorf("no choices returned")}
		return
	}

	choice := resp.Choices[0]
	parts := make([]core.Part, 0, len(choice.Message.ToolCalls)+1)
	if choice.Message.Content != "" {
		parts = append(parts, core.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}})
	}
	out <- model.Response{
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: choice.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}

var _ model.Model = (*Model)(nil)
