package descriptor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// ExecContext carries everything an executor needs for one invocation:
// the resolved base URI, live connection values, action input, the header
// mutations produced by authorization, and the HTTP transport to use.
type ExecContext struct {
	BaseURI   string
	Values    map[string]string
	Input     map[string]any
	Headers   http.Header
	Transport http.RoundTripper
}

// ActionExecutor runs a single action against the remote service.
type ActionExecutor interface {
	Execute(ctx context.Context, action *Action, ec ExecContext) (any, error)
}

// AuthorizationApplier turns live connection values into outbound header
// mutations. It performs no I/O.
type AuthorizationApplier interface {
	Apply(values map[string]string) (http.Header, error)
}

// FieldResolver produces input fields dynamically, for connectors whose
// field set depends on the connected account.
type FieldResolver interface {
	ResolveFields(ctx context.Context, values map[string]string) ([]Field, error)
}

// Registry binds action names to executors. Actions carrying a declarative
// request spec fall back to the built-in HTTP executor, so only custom
// behavior needs registering.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]ActionExecutor
}

// NewRegistry creates an empty executor registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[string]ActionExecutor)}
}

// Register binds an executor to an action name.
func (r *Registry) Register(actionName string, exec ActionExecutor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executors[actionName]; exists {
		return fmt.Errorf("executor for action %q already registered", actionName)
	}
	r.executors[actionName] = exec
	return nil
}

// Resolve returns the executor for an action: an explicitly registered one
// first, else the declarative HTTP executor when the action has a request
// spec.
func (r *Registry) Resolve(action *Action) (ActionExecutor, bool) {
	r.mu.RLock()
	exec, ok := r.executors[action.Name]
	r.mu.RUnlock()
	if ok {
		return exec, true
	}
	if action.Request != nil {
		return &HTTPExecutor{}, true
	}
	return nil, false
}

// Applier builds the AuthorizationApplier for a connection's spec.
func Applier(spec AuthorizationSpec) (AuthorizationApplier, error) {
	switch spec.Type {
	case AuthNone, "":
		return noopApplier{}, nil
	case AuthOAuth2:
		return tokenApplier{header: "Authorization", scheme: "Bearer", field: fieldOr(spec.TokenField, "access_token")}, nil
	case AuthAPIKey:
		return tokenApplier{header: headerOr(spec.Header, "X-Api-Key"), scheme: spec.Scheme, field: fieldOr(spec.TokenField, "api_key")}, nil
	case AuthCustom:
		if spec.TokenField == "" {
			return nil, fmt.Errorf("custom authorization requires token_field")
		}
		return tokenApplier{header: headerOr(spec.Header, "Authorization"), scheme: spec.Scheme, field: spec.TokenField}, nil
	}
	return nil, fmt.Errorf("unknown authorization type %q", spec.Type)
}

type noopApplier struct{}

func (noopApplier) Apply(map[string]string) (http.Header, error) {
	return http.Header{}, nil
}

type tokenApplier struct {
	header string
	scheme string
	field  string
}

func (a tokenApplier) Apply(values map[string]string) (http.Header, error) {
	token, ok := values[a.field]
	if !ok || token == "" {
		return nil, fmt.Errorf("authorization: connection value %q is not set", a.field)
	}
	value := token
	if a.scheme != "" {
		value = a.scheme + " " + token
	}
	h := http.Header{}
	h.Set(a.header, value)
	return h, nil
}

func headerOr(h, fallback string) string {
	if h != "" {
		return h
	}
	return fallback
}

func fieldOr(f, fallback string) string {
	if f != "" {
		return f
	}
	return fallback
}
