package descriptor

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// ControlType determines how a connection field is rendered and whether
// its value is sensitive.
type ControlType string

const (
	ControlText     ControlType = "text"
	ControlPassword ControlType = "password"
	ControlSelect   ControlType = "select"
	ControlNumber   ControlType = "number"
	ControlCheckbox ControlType = "checkbox"
)

// Known reports whether the control type is one of the supported set.
func (c ControlType) Known() bool {
	switch c {
	case ControlText, ControlPassword, ControlSelect, ControlNumber, ControlCheckbox:
		return true
	}
	return false
}

// Sensitive reports whether values entered through this control must be
// masked in output and scrubbed from fixtures.
func (c ControlType) Sensitive() bool {
	return c == ControlPassword
}

// FieldType is the semantic type of an input or output field.
type FieldType string

const (
	FieldString   FieldType = "string"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldDatetime FieldType = "datetime"
	FieldObject   FieldType = "object"
	FieldArray    FieldType = "array"
)

// Known reports whether the field type is one of the supported set.
func (f FieldType) Known() bool {
	switch f {
	case FieldString, FieldNumber, FieldBoolean, FieldDatetime, FieldObject, FieldArray:
		return true
	}
	return false
}

// TriggerStrategy tags how a trigger receives events.
type TriggerStrategy string

const (
	StrategyPoll    TriggerStrategy = "poll"
	StrategyWebhook TriggerStrategy = "webhook"
)

// Descriptor is the parsed definition of a connector: how to connect and
// authenticate, which actions and triggers it exposes, and the reusable
// object schemas its outputs reference.
type Descriptor struct {
	Name       string                       `yaml:"name" json:"name"`
	Version    string                       `yaml:"version,omitempty" json:"version,omitempty"`
	Connection *Connection                  `yaml:"connection" json:"connection"`
	Actions    map[string]*Action           `yaml:"actions" json:"actions"`
	Triggers   map[string]*Trigger          `yaml:"triggers,omitempty" json:"triggers,omitempty"`
	Objects    map[string]*ObjectDefinition `yaml:"object_definitions,omitempty" json:"object_definitions,omitempty"`
}

// Connection declares the fields a user supplies to connect, how requests
// are authorized, and the base URI template for the remote service.
type Connection struct {
	Fields        []ConnectionField `yaml:"fields" json:"fields"`
	Authorization AuthorizationSpec `yaml:"authorization" json:"authorization"`
	BaseURI       string            `yaml:"base_uri" json:"base_uri"`
}

// ConnectionField is a single connection setting.
type ConnectionField struct {
	Name     string      `yaml:"name" json:"name"`
	Label    string      `yaml:"label,omitempty" json:"label,omitempty"`
	Hint     string      `yaml:"hint,omitempty" json:"hint,omitempty"`
	Optional bool        `yaml:"optional,omitempty" json:"optional,omitempty"`
	Control  ControlType `yaml:"control,omitempty" json:"control,omitempty"`
}

// AuthType tags the authorization mechanism of a connection.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthCustom AuthType = "custom"
	AuthAPIKey AuthType = "api_key"
	AuthOAuth2 AuthType = "oauth2"
)

// AuthorizationSpec describes how outbound requests acquire credentials.
// TokenField names the connection field holding the secret; Header and
// Scheme customize where and how it is sent for the custom type.
type AuthorizationSpec struct {
	Type       AuthType `yaml:"type" json:"type"`
	Header     string   `yaml:"header,omitempty" json:"header,omitempty"`
	Scheme     string   `yaml:"scheme,omitempty" json:"scheme,omitempty"`
	TokenField string   `yaml:"token_field,omitempty" json:"token_field,omitempty"`
}

// Field is a named, typed input or output field.
type Field struct {
	Name     string    `yaml:"name" json:"name"`
	Type     FieldType `yaml:"type" json:"type"`
	Optional bool      `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// OutputRef points an action's output at a declared object definition.
type OutputRef struct {
	Object string `yaml:"object,omitempty" json:"object,omitempty"`
}

// Action is a single synchronous operation the connector exposes.
type Action struct {
	Name     string           `yaml:"-" json:"name"`
	Title    string           `yaml:"title,omitempty" json:"title,omitempty"`
	Subtitle string           `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	Input    []Field          `yaml:"input_fields,omitempty" json:"input_fields,omitempty"`
	Output   OutputRef        `yaml:"output_fields,omitempty" json:"output_fields,omitempty"`
	Request  *HTTPRequestSpec `yaml:"request,omitempty" json:"request,omitempty"`
}

// Trigger is an action that fires on remote events rather than on demand.
// Delivery (polling schedule, webhook registration) is not modeled here.
type Trigger struct {
	Action   `yaml:",inline"`
	Strategy TriggerStrategy `yaml:"strategy,omitempty" json:"strategy,omitempty"`
}

// HTTPRequestSpec is the declarative request an action issues. Path and
// Body are templates over the action's input values; Path is joined onto
// the connection's resolved base URI.
type HTTPRequestSpec struct {
	Method string `yaml:"method" json:"method"`
	Path   string `yaml:"path" json:"path"`
	Body   string `yaml:"body,omitempty" json:"body,omitempty"`
}

// ObjectDefinition is a reusable schema for data an action produces.
type ObjectDefinition struct {
	Name   string  `yaml:"-" json:"name"`
	Fields []Field `yaml:"fields" json:"fields"`
}

var templateRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// expand substitutes {{name}} tokens with values. Unresolved tokens are
// an error so a typo surfaces before any request is made.
func expand(template string, values map[string]string) (string, error) {
	var missing []string
	out := templateRe.ReplaceAllStringFunc(template, func(tok string) string {
		name := templateRe.FindStringSubmatch(tok)[1]
		v, ok := values[name]
		if !ok {
			missing = append(missing, name)
			return tok
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("template %q references undeclared field(s): %s", template, strings.Join(missing, ", "))
	}
	return out, nil
}

// TemplateRefs returns the field names a template references.
func TemplateRefs(template string) []string {
	var refs []string
	for _, m := range templateRe.FindAllStringSubmatch(template, -1) {
		refs = append(refs, m[1])
	}
	return refs
}

// ResolveBaseURI expands the connection's base URI template against the
// supplied connection values.
func (d *Descriptor) ResolveBaseURI(values map[string]string) (string, error) {
	if d.Connection == nil {
		return "", fmt.Errorf("descriptor has no connection")
	}
	uri, err := expand(d.Connection.BaseURI, values)
	if err != nil {
		return "", fmt.Errorf("resolving base URI: %w", err)
	}
	return strings.TrimRight(uri, "/"), nil
}

// ActionNames returns the declared action names, sorted.
func (d *Descriptor) ActionNames() []string {
	names := lo.Keys(d.Actions)
	sort.Strings(names)
	return names
}

// TriggerNames returns the declared trigger names, sorted.
func (d *Descriptor) TriggerNames() []string {
	names := lo.Keys(d.Triggers)
	sort.Strings(names)
	return names
}

// Object looks up an object definition by name.
func (d *Descriptor) Object(name string) (*ObjectDefinition, bool) {
	obj, ok := d.Objects[name]
	return obj, ok
}

// SensitiveFields returns the names of connection fields whose values
// must never appear in fixtures or logs.
func (d *Descriptor) SensitiveFields() []string {
	if d.Connection == nil {
		return nil
	}
	fields := lo.Filter(d.Connection.Fields, func(f ConnectionField, _ int) bool {
		return f.Control.Sensitive()
	})
	return lo.Map(fields, func(f ConnectionField, _ int) string { return f.Name })
}

// HasField reports whether the connection declares a field by name.
func (c *Connection) HasField(name string) bool {
	for _, f := range c.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
