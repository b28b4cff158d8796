package descriptor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPExecutor runs actions described entirely by their declarative
// request spec: it expands the path and body templates against the input,
// joins the path onto the resolved base URI, and issues the request
// through the supplied transport.
type HTTPExecutor struct{}

func (e *HTTPExecutor) Execute(ctx context.Context, action *Action, ec ExecContext) (any, error) {
	spec := action.Request
	if spec == nil {
		return nil, fmt.Errorf("action %q has no request spec", action.Name)
	}

	inputs := stringValues(ec.Input)

	path, err := expand(spec.Path, inputs)
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", action.Name, err)
	}
	url := ec.BaseURI + "/" + strings.TrimLeft(path, "/")

	var bodyReader io.Reader
	var bodyStr string
	if spec.Body != "" {
		bodyStr, err = expand(spec.Body, inputs)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", action.Name, err)
		}
		bodyReader = strings.NewReader(bodyStr)
	}

	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("action %q: creating request: %w", action.Name, err)
	}
	for k, vals := range ec.Headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	transport := ec.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	resp, err := transport.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("action %q: %s %s: %w", action.Name, method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("action %q: reading response: %w", action.Name, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("action %q: %s %s: remote returned %d: %s",
			action.Name, method, url, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		parsed = string(respBody)
	}
	return parsed, nil
}

func stringValues(input map[string]any) map[string]string {
	out := make(map[string]string, len(input))
	for k, v := range input {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}
