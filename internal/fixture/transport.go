package fixture

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Mode selects how the transport handles outgoing requests.
type Mode string

const (
	// ModeRecord always performs live calls and persists the exchange.
	ModeRecord Mode = "record"
	// ModeReplay never performs live calls.
	ModeReplay Mode = "replay"
	// ModeOnce replays a matching interaction and records on a miss.
	ModeOnce Mode = "once"
)

// ParseMode validates a mode string, typically from the environment.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeRecord, ModeReplay, ModeOnce:
		return Mode(s), nil
	case "":
		return ModeOnce, nil
	}
	return "", fmt.Errorf("invalid record mode %q (must be record, replay, or once)", s)
}

// Transport is an http.RoundTripper that records or replays interactions
// against a single fixture store. Secrets are scrubbed before matching
// and before persisting, so fixtures never contain live credentials.
type Transport struct {
	Mode     Mode
	Store    *Store
	Scrubber *Scrubber
	// Live handles record-mode calls; defaults to http.DefaultTransport.
	Live http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := requestBody(req)
	if err != nil {
		return nil, err
	}

	scrub := t.Scrubber
	if scrub == nil {
		scrub = NewScrubber(nil)
	}
	uri := scrub.Apply(req.URL.String())
	matchBody := scrub.Apply(body)

	switch t.Mode {
	case ModeReplay:
		if in, ok := t.Store.Match(req.Method, uri, matchBody); ok {
			return synthesize(req, in), nil
		}
		return nil, fmt.Errorf("%w for %s %s", ErrNoMatchingInteraction, req.Method, uri)
	case ModeOnce:
		if in, ok := t.Store.Match(req.Method, uri, matchBody); ok {
			return synthesize(req, in), nil
		}
		return t.record(req, uri, matchBody)
	case ModeRecord:
		return t.record(req, uri, matchBody)
	}
	return nil, fmt.Errorf("fixture transport: invalid mode %q", t.Mode)
}

func (t *Transport) record(req *http.Request, scrubbedURI, scrubbedBody string) (*http.Response, error) {
	live := t.Live
	if live == nil {
		live = http.DefaultTransport
	}

	resp, err := live.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("recording %s %s: reading response: %w", req.Method, scrubbedURI, err)
	}

	scrub := t.Scrubber
	if scrub == nil {
		scrub = NewScrubber(nil)
	}
	in := scrub.Interaction(Interaction{
		Method:          req.Method,
		URI:             scrubbedURI,
		RequestBody:     scrubbedBody,
		ResponseStatus:  resp.StatusCode,
		ResponseBody:    string(respBody),
		ResponseHeaders: flattenHeaders(resp.Header),
	})
	t.Store.Append(in)
	if err := t.Store.Save(); err != nil {
		return nil, err
	}

	resp.Body = io.NopCloser(bytes.NewReader(respBody))
	return resp, nil
}

// requestBody reads and restores the outgoing request body.
func requestBody(req *http.Request) (string, error) {
	if req.Body == nil {
		return "", nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return "", fmt.Errorf("reading request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	return string(data), nil
}

func synthesize(req *http.Request, in *Interaction) *http.Response {
	header := http.Header{}
	for k, v := range in.ResponseHeaders {
		header.Set(k, v)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", in.ResponseStatus, http.StatusText(in.ResponseStatus)),
		StatusCode:    in.ResponseStatus,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(strings.NewReader(in.ResponseBody)),
		ContentLength: int64(len(in.ResponseBody)),
		Request:       req,
	}
}

func flattenHeaders(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}
