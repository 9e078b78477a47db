package agent

import "github.com/hupe1980/agentcore/core"

// Provider supplies dynamic instruction text at runtime. Implementations can
// derive instructions from session state, the environment, etc.
type Provider interface {
	Instruction(*core.RunContext) (string, error)
}

// Func is a functional adapter allowing ordinary functions to be used as
// Providers.
type Func func(*core.RunContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(runCtx *core.RunContext) (string, error) { return f(runCtx) }

// Instruction represents either a static instruction string or a dynamic
// provider. This mirrors a union of string | provider in a Go-idiomatic way.
// Static text may contain {key} placeholders resolved against session state
// at request time; provider output is used verbatim.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.RunContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(runCtx *core.RunContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(runCtx)
	}
	return i.text, nil
}
