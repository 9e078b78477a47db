package agent

import (
	"github.com/hupe1980/agentcore/core"
)

// childOutcome summarizes what a coordinated child emitted.
type childOutcome struct {
	// escalated reports whether any forwarded event carried an escalation.
	escalated bool
	// lastText holds the text of the last non-partial event with content.
	lastText string
}

// runChildIntercepted executes child against a derived context whose events
// route through an intercept channel. Each event is forwarded upstream via
// fwd.EmitAndWait, which holds the handshake lock shared by all contexts on
// the same upstream channel pair: the relay only returns once the upstream
// acknowledgement for this event has arrived, and a concurrent sibling
// branch can never consume it.
//
// fwd must not be shared with concurrent emitters: EmitAndWait drains the
// context's pending state delta buffer. Concurrent callers pass a Clone.
func runChildIntercepted(fwd *core.RunContext, child core.Agent, branch string) (childOutcome, error) {
	interceptChan := make(chan core.Event, 10)
	resumeChan := make(chan struct{}, 10)
	childCtx := fwd.NewChildContext(interceptChan, resumeChan, branch)

	done := make(chan error, 1)
	go func() {
		done <- child.Run(childCtx)
		close(interceptChan)
	}()

	var outcome childOutcome

	for ev := range interceptChan {
		if ev.Actions.Escalate != nil && *ev.Actions.Escalate {
			outcome.escalated = true
		}
		if !ev.IsPartial() {
			if text := ev.Text(); text != "" {
				outcome.lastText = text
			}
		}

		if err := fwd.EmitAndWait(ev); err != nil {
			<-done
			return outcome, err
		}

		if !ev.IsPartial() {
			// Upstream has persisted the event; release the child.
			select {
			case resumeChan <- struct{}{}:
			case <-fwd.Done():
				<-done
				return outcome, fwd.Err()
			}
		}
	}

	return outcome, <-done
}
