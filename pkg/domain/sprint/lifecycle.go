package sprint

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Lifecycle states. These stay untyped for statekit.StateID compatibility.
const (
	StateActive = "active"
	StateClosed = "closed"
)

// EventClose ends an active sprint.
const EventClose = "close"

// LifecycleContext carries the sprint the machine belongs to.
type LifecycleContext struct {
	Number int
}

// Lifecycle enforces that a sprint moves from active to closed exactly once.
type Lifecycle struct {
	interpreter *statekit.Interpreter[LifecycleContext]
}

// NewLifecycle builds the machine positioned at state.
func NewLifecycle(number int, state string) (*Lifecycle, error) {
	builder := statekit.NewMachine[LifecycleContext]("sprint-lifecycle").
		WithInitial(statekit.StateID(state)).
		WithContext(LifecycleContext{Number: number})

	builder.State(StateActive).
		On(EventClose).Target(StateClosed).
		Done()

	// Closed sprints are never reopened.
	builder.State(StateClosed).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build sprint lifecycle: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()
	return &Lifecycle{interpreter: interpreter}, nil
}

// Fire sends event and fails when the state did not change.
func (l *Lifecycle) Fire(event string) error {
	before := l.Current()
	l.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if l.Current() == before {
		return fmt.Errorf("the action '%s' is not allowed while the sprint is %s", event, before)
	}
	return nil
}

// Current returns the current state.
func (l *Lifecycle) Current() string {
	return string(l.interpreter.State().Value)
}
