// Package harness resolves and invokes a connector's actions against a
// descriptor and caller-supplied HTTP transport. It validates fail-closed
// before touching the network and never retries on its own.
package harness

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"coupler/internal/descriptor"
	"coupler/internal/schema"
)

// State tracks where a single run is in its lifecycle.
type State string

const (
	StateIdle             State = "idle"
	StateValidating       State = "validating"
	StateAuthorizing      State = "authorizing"
	StateInvoking         State = "invoking"
	StateCompleted        State = "completed"
	StateValidationFailed State = "validation_failed"
	StateInvocationFailed State = "invocation_failed"
)

// ErrActionNotFound is returned when the named action is not declared.
var ErrActionNotFound = errors.New("action not found")

// ErrSchemaMismatch is returned when an action's output object cannot be
// resolved against the descriptor's object definitions.
var ErrSchemaMismatch = errors.New("output schema mismatch")

// ExecutionError wraps a transport or executor failure with the action
// that caused it.
type ExecutionError struct {
	Action string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing action %q: %v", e.Action, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Result is the outcome of one run: the raw execute output plus the
// schema resolved from the action's output object.
type Result struct {
	Action     string             `json:"action"`
	State      State              `json:"state"`
	Output     any                `json:"output,omitempty"`
	Schema     []descriptor.Field `json:"schema,omitempty"`
	DurationMs int64              `json:"duration_ms"`
	Error      string             `json:"error,omitempty"`
}

// Harness invokes connector actions. The transport decides whether calls
// go to the live service or a fixture.
type Harness struct {
	Registry  *descriptor.Registry
	Transport http.RoundTripper
}

// New creates a harness. A nil registry means only declarative actions
// can run.
func New(registry *descriptor.Registry, transport http.RoundTripper) *Harness {
	if registry == nil {
		registry = descriptor.NewRegistry()
	}
	return &Harness{Registry: registry, Transport: transport}
}

// Run validates the descriptor, applies authorization, and executes the
// named action with the given connection values and input. Context
// cancellation and deadline errors from the transport propagate
// unchanged.
func (h *Harness) Run(ctx context.Context, d *descriptor.Descriptor, actionName string, values map[string]string, input map[string]any) (*Result, error) {
	result := &Result{Action: actionName, State: StateValidating}

	start := time.Now()
	defer func() {
		result.DurationMs = time.Since(start).Milliseconds()
	}()

	if vr := schema.Validate(d); !vr.OK() {
		return fail(result, StateValidationFailed, vr.Err())
	}

	action, ok := d.Actions[actionName]
	if !ok {
		return fail(result, StateValidationFailed, fmt.Errorf("%w: %q (declared: %v)", ErrActionNotFound, actionName, d.ActionNames()))
	}

	result.State = StateAuthorizing

	baseURI, err := d.ResolveBaseURI(values)
	if err != nil {
		return fail(result, StateInvocationFailed, &ExecutionError{Action: actionName, Err: err})
	}

	applier, err := descriptor.Applier(d.Connection.Authorization)
	if err != nil {
		return fail(result, StateInvocationFailed, &ExecutionError{Action: actionName, Err: err})
	}
	headers, err := applier.Apply(values)
	if err != nil {
		return fail(result, StateInvocationFailed, &ExecutionError{Action: actionName, Err: err})
	}

	result.State = StateInvoking

	exec, ok := h.Registry.Resolve(action)
	if !ok {
		return fail(result, StateInvocationFailed, &ExecutionError{Action: actionName, Err: errors.New("no executor registered and no request spec declared")})
	}

	output, err := exec.Execute(ctx, action, descriptor.ExecContext{
		BaseURI:   baseURI,
		Values:    values,
		Input:     input,
		Headers:   headers,
		Transport: h.Transport,
	})
	if err != nil {
		// Cancellation and timeouts pass through unwrapped.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fail(result, StateInvocationFailed, err)
		}
		return fail(result, StateInvocationFailed, &ExecutionError{Action: actionName, Err: err})
	}
	result.Output = output

	if ref := action.Output.Object; ref != "" {
		obj, ok := d.Object(ref)
		if !ok {
			return fail(result, StateInvocationFailed, fmt.Errorf("%w: action %q output object %q", ErrSchemaMismatch, actionName, ref))
		}
		result.Schema = obj.Fields
	}

	result.State = StateCompleted
	return result, nil
}

func fail(r *Result, state State, err error) (*Result, error) {
	r.State = state
	r.Error = err.Error()
	return r, err
}
