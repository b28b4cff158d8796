package descriptor

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMalformedDescriptor marks a connector file whose structure is broken
// badly enough that no typed model can be built from it.
var ErrMalformedDescriptor = errors.New("malformed descriptor")

// Load reads and parses a connector descriptor file.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading connector file %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("connector file %s: %w", path, err)
	}
	return d, nil
}

// Parse builds a typed descriptor from YAML. It fails with
// ErrMalformedDescriptor when required top-level keys are missing or a
// field name repeats within a single field sequence. Unknown control and
// field types survive parsing; the schema validator reports those.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}

	if d.Connection == nil {
		return nil, fmt.Errorf("%w: missing required key 'connection'", ErrMalformedDescriptor)
	}
	if len(d.Actions) == 0 {
		return nil, fmt.Errorf("%w: missing required key 'actions'", ErrMalformedDescriptor)
	}

	if err := checkDuplicateConnFields(d.Connection.Fields, "connection"); err != nil {
		return nil, err
	}

	// Map keys become the canonical names.
	for name, action := range d.Actions {
		if action == nil {
			return nil, fmt.Errorf("%w: action %q has no definition", ErrMalformedDescriptor, name)
		}
		action.Name = name
		if err := checkDuplicateFields(action.Input, "action "+name); err != nil {
			return nil, err
		}
	}
	for name, trigger := range d.Triggers {
		if trigger == nil {
			return nil, fmt.Errorf("%w: trigger %q has no definition", ErrMalformedDescriptor, name)
		}
		trigger.Name = name
		if err := checkDuplicateFields(trigger.Input, "trigger "+name); err != nil {
			return nil, err
		}
	}
	for name, obj := range d.Objects {
		if obj == nil {
			return nil, fmt.Errorf("%w: object definition %q has no definition", ErrMalformedDescriptor, name)
		}
		obj.Name = name
		if err := checkDuplicateFields(obj.Fields, "object "+name); err != nil {
			return nil, err
		}
	}

	return &d, nil
}

func checkDuplicateConnFields(fields []ConnectionField, where string) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return fmt.Errorf("%w: %s: duplicate field name %q", ErrMalformedDescriptor, where, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

func checkDuplicateFields(fields []Field, where string) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Name] {
			return fmt.Errorf("%w: %s: duplicate field name %q", ErrMalformedDescriptor, where, f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}
