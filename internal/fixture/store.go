// Package fixture records and replays HTTP interactions so connector
// runs are deterministic after the first live execution. A fixture file
// is an ordered YAML sequence of interactions owned by a single writer.
package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNoMatchingInteraction is returned in replay mode when no persisted
// interaction matches the outgoing request.
var ErrNoMatchingInteraction = errors.New("no matching interaction")

// Interaction is one recorded request/response pair. Sensitive values are
// replaced with placeholder tokens before the pair is persisted.
type Interaction struct {
	Method          string            `yaml:"method"`
	URI             string            `yaml:"uri"`
	RequestBody     string            `yaml:"request_body,omitempty"`
	ResponseStatus  int               `yaml:"response_status"`
	ResponseBody    string            `yaml:"response_body"`
	ResponseHeaders map[string]string `yaml:"response_headers,omitempty"`
}

// Store holds the interactions of one fixture file.
type Store struct {
	path         string
	interactions []Interaction
	dirty        bool
}

// Open loads a fixture file, or starts an empty store when the file does
// not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s.interactions); err != nil {
		return nil, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	return s, nil
}

// Match finds the first interaction for method+uri. The body is part of
// the match key only when the outgoing request declares a non-empty body;
// a same-method+URI request with a different declared body is a miss.
func (s *Store) Match(method, uri, body string) (*Interaction, bool) {
	for i := range s.interactions {
		in := &s.interactions[i]
		if in.Method != method || in.URI != uri {
			continue
		}
		if body != "" && in.RequestBody != body {
			continue
		}
		return in, true
	}
	return nil, false
}

// Append adds an interaction to the ordered sequence.
func (s *Store) Append(in Interaction) {
	s.interactions = append(s.interactions, in)
	s.dirty = true
}

// Len returns the number of recorded interactions.
func (s *Store) Len() int {
	return len(s.interactions)
}

// Save writes the sequence back to the fixture file. It is a no-op when
// nothing was appended since the last save.
func (s *Store) Save() error {
	if !s.dirty {
		return nil
	}
	data, err := yaml.Marshal(s.interactions)
	if err != nil {
		return fmt.Errorf("encoding fixture: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating fixture dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing fixture %s: %w", s.path, err)
	}
	s.dirty = false
	return nil
}
