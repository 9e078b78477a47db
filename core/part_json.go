package core

import (
	"encoding/json"
	"fmt"
)

// Wire representation of a Part. Storage backends (e.g. the Redis session
// service) must round-trip events exactly, so Content carries a custom codec
// using a "type" discriminator per part.
type partEnvelope struct {
	Type             string            `json:"type"`
	Text             string            `json:"text,omitempty"`
	Data             map[string]any    `json:"data,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty"`
	Metadata         map[string]any    `json:"metadata,omitempty"`
}

const (
	partTypeText             = "text"
	partTypeData             = "data"
	partTypeFunctionCall     = "function_call"
	partTypeFunctionResponse = "function_response"
)

// MarshalJSON implements json.Marshaler for Content.
func (c Content) MarshalJSON() ([]byte, error) {
	envelopes := make([]partEnvelope, 0, len(c.Parts))
	for _, p := range c.Parts {
		switch v := p.(type) {
		case TextPart:
			envelopes = append(envelopes, partEnvelope{Type: partTypeText, Text: v.Text, Metadata: v.Metadata})
		case DataPart:
			envelopes = append(envelopes, partEnvelope{Type: partTypeData, Data: v.Data, Metadata: v.Metadata})
		case FunctionCallPart:
			fc := v.FunctionCall
			envelopes = append(envelopes, partEnvelope{Type: partTypeFunctionCall, FunctionCall: &fc, Metadata: v.Metadata})
		case FunctionResponsePart:
			fr := v.FunctionResponse
			envelopes = append(envelopes, partEnvelope{Type: partTypeFunctionResponse, FunctionResponse: &fr, Metadata: v.Metadata})
		default:
			return nil, fmt.Errorf("cannot marshal part of type %T", p)
		}
	}

	return json.Marshal(struct {
		Role  string         `json:"role,omitempty"`
		Parts []partEnvelope `json:"parts"`
	}{Role: c.Role, Parts: envelopes})
}

// UnmarshalJSON implements json.Unmarshaler for Content.
func (c *Content) UnmarshalJSON(data []byte) error {
	var wire struct {
		Role  string         `json:"role"`
		Parts []partEnvelope `json:"parts"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	c.Role = wire.Role
	c.Parts = make([]Part, 0, len(wire.Parts))

	for _, env := range wire.Parts {
		switch env.Type {
		case partTypeText:
			c.Parts = append(c.Parts, TextPart{Text: env.Text, Metadata: env.Metadata})
		case partTypeData:
			c.Parts = append(c.Parts, DataPart{Data: env.Data, Metadata: env.Metadata})
		case partTypeFunctionCall:
			if env.FunctionCall == nil {
				return fmt.Errorf("function_call part without payload")
			}
			c.Parts = append(c.Parts, FunctionCallPart{FunctionCall: *env.FunctionCall, Metadata: env.Metadata})
		case partTypeFunctionResponse:
			if env.FunctionResponse == nil {
				return fmt.Errorf("function_response part without payload")
			}
			c.Parts = append(c.Parts, FunctionResponsePart{FunctionResponse: *env.FunctionResponse, Metadata: env.Metadata})
		default:
			return fmt.Errorf("unknown part type %q", env.Type)
		}
	}

	return nil
}
