package descriptor

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
name: acme
connection:
  base_uri: "https://{{subdomain}}.acme.dev/api"
  fields:
    - name: subdomain
      control: text
    - name: api_key
      control: password
  authorization:
    type: custom
    scheme: Token
    token_field: api_key
actions:
  get_record:
    title: Get record
    input_fields:
      - name: id
        type: string
    output_fields:
      object: record
    request:
      method: GET
      path: "/records/{{id}}"
object_definitions:
  record:
    fields:
      - name: id
        type: string
      - name: name
        type: string
`

func TestParseValid(t *testing.T) {
	d, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if d.Name != "acme" {
		t.Errorf("name = %q, want acme", d.Name)
	}
	action, ok := d.Actions["get_record"]
	if !ok {
		t.Fatal("action get_record not parsed")
	}
	if action.Name != "get_record" {
		t.Errorf("action name = %q, want get_record (set from map key)", action.Name)
	}
	if action.Output.Object != "record" {
		t.Errorf("output object = %q, want record", action.Output.Object)
	}
	obj, ok := d.Object("record")
	if !ok || obj.Name != "record" {
		t.Error("object definition record not resolvable")
	}
	if len(d.Connection.Fields) != 2 {
		t.Fatalf("expected 2 connection fields, got %d", len(d.Connection.Fields))
	}
}

func TestParseMissingConnection(t *testing.T) {
	_, err := Parse([]byte("name: x\nactions:\n  a:\n    title: A\n"))
	if !errors.Is(err, ErrMalformedDescriptor) {
		t.Fatalf("expected ErrMalformedDescriptor, got: %v", err)
	}
	if !strings.Contains(err.Error(), "connection") {
		t.Errorf("error should name the missing key: %v", err)
	}
}

func TestParseMissingActions(t *testing.T) {
	_, err := Parse([]byte("name: x\nconnection:\n  base_uri: https://acme.dev\n"))
	if !errors.Is(err, ErrMalformedDescriptor) {
		t.Fatalf("expected ErrMalformedDescriptor, got: %v", err)
	}
}

func TestParseDuplicateConnectionField(t *testing.T) {
	yaml := `
connection:
  base_uri: https://acme.dev
  fields:
    - name: api_key
    - name: api_key
actions:
  get:
    title: Get
`
	_, err := Parse([]byte(yaml))
	if !errors.Is(err, ErrMalformedDescriptor) {
		t.Fatalf("expected ErrMalformedDescriptor, got: %v", err)
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("error should name the duplicated field: %v", err)
	}
}

func TestParseDuplicateActionName(t *testing.T) {
	yaml := `
connection:
  base_uri: https://acme.dev
actions:
  get_record:
    title: One
  get_record:
    title: Two
`
	if _, err := Parse([]byte(yaml)); !errors.Is(err, ErrMalformedDescriptor) {
		t.Fatalf("expected ErrMalformedDescriptor for duplicate action key, got: %v", err)
	}
}

func TestParseDuplicateInputField(t *testing.T) {
	yaml := `
connection:
  base_uri: https://acme.dev
actions:
  get:
    input_fields:
      - name: id
      - name: id
`
	if _, err := Parse([]byte(yaml)); !errors.Is(err, ErrMalformedDescriptor) {
		t.Fatalf("expected ErrMalformedDescriptor, got: %v", err)
	}
}

func TestResolveBaseURI(t *testing.T) {
	d, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatal(err)
	}

	uri, err := d.ResolveBaseURI(map[string]string{"subdomain": "demo", "api_key": "k"})
	if err != nil {
		t.Fatalf("ResolveBaseURI error: %v", err)
	}
	if uri != "https://demo.acme.dev/api" {
		t.Errorf("uri = %q", uri)
	}

	if _, err := d.ResolveBaseURI(map[string]string{"api_key": "k"}); err == nil {
		t.Error("expected error for missing subdomain value")
	}
}

func TestSensitiveFields(t *testing.T) {
	d, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatal(err)
	}
	got := d.SensitiveFields()
	if len(got) != 1 || got[0] != "api_key" {
		t.Errorf("SensitiveFields = %v, want [api_key]", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSampleConnector(t *testing.T) {
	d, err := Load(filepath.Join("..", "..", "examples", "acme.yaml"))
	if err != nil {
		t.Fatalf("loading sample connector: %v", err)
	}
	if len(d.ActionNames()) != 2 {
		t.Errorf("sample actions = %v", d.ActionNames())
	}
	if tr, ok := d.Triggers["new_record"]; !ok || tr.Strategy != StrategyPoll {
		t.Error("sample trigger new_record not parsed as poll")
	}
}

func TestLoadFromTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conn.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if d.Name != "acme" {
		t.Errorf("name = %q", d.Name)
	}
}
