package harness

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coupler/internal/descriptor"
	"coupler/internal/fixture"
)

func acmeDescriptor() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		Name: "acme",
		Connection: &descriptor.Connection{
			BaseURI: "https://{{subdomain}}.acme.dev/api",
			Fields: []descriptor.ConnectionField{
				{Name: "subdomain", Control: descriptor.ControlText},
				{Name: "api_key", Control: descriptor.ControlPassword},
			},
			Authorization: descriptor.AuthorizationSpec{
				Type:       descriptor.AuthCustom,
				Scheme:     "Token",
				TokenField: "api_key",
			},
		},
		Actions: map[string]*descriptor.Action{
			"get_record": {
				Name:   "get_record",
				Input:  []descriptor.Field{{Name: "id", Type: descriptor.FieldString}},
				Output: descriptor.OutputRef{Object: "record"},
				Request: &descriptor.HTTPRequestSpec{
					Method: "GET",
					Path:   "/records/{{id}}",
				},
			},
		},
		Objects: map[string]*descriptor.ObjectDefinition{
			"record": {
				Name: "record",
				Fields: []descriptor.Field{
					{Name: "id", Type: descriptor.FieldString},
					{Name: "name", Type: descriptor.FieldString},
				},
			},
		},
	}
}

var acmeValues = map[string]string{"subdomain": "demo", "api_key": "k1"}

// failingLive fails the test if any live call escapes the fixture.
type failingLive struct{ t *testing.T }

func (f failingLive) RoundTrip(req *http.Request) (*http.Response, error) {
	f.t.Fatalf("unexpected live call: %s %s", req.Method, req.URL)
	return nil, nil
}

func replayTransport(t *testing.T, interactions ...fixture.Interaction) *fixture.Transport {
	store := &fixture.Store{}
	for _, in := range interactions {
		store.Append(in)
	}
	return &fixture.Transport{Mode: fixture.ModeReplay, Store: store, Live: failingLive{t}}
}

func TestRunReplayHit(t *testing.T) {
	tr := replayTransport(t, fixture.Interaction{
		Method:         "GET",
		URI:            "https://demo.acme.dev/api/records/42",
		ResponseStatus: 200,
		ResponseBody:   `{"id":"42","name":"Widget"}`,
	})

	h := New(nil, tr)
	result, err := h.Run(context.Background(), acmeDescriptor(), "get_record", acmeValues, map[string]any{"id": "42"})
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, result.State)
	out := result.Output.(map[string]any)
	assert.Equal(t, "42", out["id"])
	assert.Equal(t, "Widget", out["name"])
	require.Len(t, result.Schema, 2)
	assert.Equal(t, "id", result.Schema[0].Name)
}

func TestRunReplayMiss(t *testing.T) {
	tr := replayTransport(t, fixture.Interaction{
		Method:         "GET",
		URI:            "https://demo.acme.dev/api/records/7",
		ResponseStatus: 200,
		ResponseBody:   `{}`,
	})

	h := New(nil, tr)
	result, err := h.Run(context.Background(), acmeDescriptor(), "get_record", acmeValues, map[string]any{"id": "42"})

	require.ErrorIs(t, err, fixture.ErrNoMatchingInteraction)
	assert.Equal(t, StateInvocationFailed, result.State)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "get_record", execErr.Action)
}

func TestRunActionNotFound(t *testing.T) {
	h := New(nil, replayTransport(t))
	result, err := h.Run(context.Background(), acmeDescriptor(), "delete_record", acmeValues, nil)

	require.ErrorIs(t, err, ErrActionNotFound)
	assert.Equal(t, StateValidationFailed, result.State)
	assert.Contains(t, err.Error(), "delete_record")
	assert.Contains(t, err.Error(), "get_record", "error should list declared actions")
}

func TestRunFailsClosedOnInvalidDescriptor(t *testing.T) {
	d := acmeDescriptor()
	d.Actions["get_record"].Output.Object = "missing_object"

	h := New(nil, &fixture.Transport{Mode: fixture.ModeReplay, Store: &fixture.Store{}, Live: failingLive{t}})
	result, err := h.Run(context.Background(), d, "get_record", acmeValues, map[string]any{"id": "42"})

	require.Error(t, err)
	assert.Equal(t, StateValidationFailed, result.State)
	assert.Contains(t, err.Error(), "missing_object")
}

func TestRunAuthorizationFailure(t *testing.T) {
	h := New(nil, replayTransport(t))
	// api_key not supplied, so the applier cannot build headers.
	result, err := h.Run(context.Background(), acmeDescriptor(), "get_record", map[string]string{"subdomain": "demo"}, map[string]any{"id": "42"})

	require.Error(t, err)
	assert.Equal(t, StateInvocationFailed, result.State)
	assert.Contains(t, err.Error(), "api_key")
}

func TestRunAppliesAuthorizationHeader(t *testing.T) {
	var gotAuth string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		return (&fixture.Transport{Mode: fixture.ModeReplay, Store: storeWith(fixture.Interaction{
			Method:         "GET",
			URI:            req.URL.String(),
			ResponseStatus: 200,
			ResponseBody:   `{}`,
		})}).RoundTrip(req)
	})

	h := New(nil, rt)
	_, err := h.Run(context.Background(), acmeDescriptor(), "get_record", acmeValues, map[string]any{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "Token k1", gotAuth)
}

func TestRunPropagatesCancellation(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, context.Canceled
	})

	h := New(nil, rt)
	result, err := h.Run(context.Background(), acmeDescriptor(), "get_record", acmeValues, map[string]any{"id": "42"})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateInvocationFailed, result.State)
	// Cancellation is not wrapped in an ExecutionError.
	var execErr *ExecutionError
	assert.False(t, errors.As(err, &execErr))
}

func TestRunCustomExecutor(t *testing.T) {
	registry := descriptor.NewRegistry()
	require.NoError(t, registry.Register("get_record", staticExecutor{out: map[string]any{"id": "1"}}))

	h := New(registry, failingLive{t})
	result, err := h.Run(context.Background(), acmeDescriptor(), "get_record", acmeValues, nil)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, map[string]any{"id": "1"}, result.Output)
}

type staticExecutor struct{ out any }

func (s staticExecutor) Execute(context.Context, *descriptor.Action, descriptor.ExecContext) (any, error) {
	return s.out, nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func storeWith(interactions ...fixture.Interaction) *fixture.Store {
	s := &fixture.Store{}
	for _, in := range interactions {
		s.Append(in)
	}
	return s
}
