// Package schema statically checks a connector descriptor for structural
// and referential correctness. Validation never performs network I/O and
// aggregates every finding so a single run surfaces all problems.
package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	"coupler/internal/descriptor"
)

// Code identifies a class of validation finding.
type Code string

const (
	CodeMalformed        Code = "malformed_descriptor"
	CodeUnknownControl   Code = "unknown_control_type"
	CodeUnknownFieldType Code = "unknown_field_type"
	CodeDanglingObject   Code = "dangling_object_reference"
	CodeInvalidIdent     Code = "invalid_identifier"
)

// Level separates findings that block execution from advisory ones.
type Level string

const (
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Finding is a single validation problem with enough context to act on.
type Finding struct {
	Level   Level  `json:"level"`
	Code    Code   `json:"code"`
	Context string `json:"context"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", f.Level, f.Code, f.Context, f.Message)
}

// Result aggregates all findings from one validation pass.
type Result struct {
	Findings []Finding `json:"findings"`
}

func (r *Result) add(level Level, code Code, context, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{
		Level:   level,
		Code:    code,
		Context: context,
		Message: fmt.Sprintf(format, args...),
	})
}

// OK reports whether the descriptor may be executed: warnings allowed,
// hard findings not.
func (r *Result) OK() bool {
	return len(r.Errors()) == 0
}

// Errors returns the hard findings.
func (r *Result) Errors() []Finding {
	return lo.Filter(r.Findings, func(f Finding, _ int) bool { return f.Level == LevelError })
}

// Warnings returns the advisory findings.
func (r *Result) Warnings() []Finding {
	return lo.Filter(r.Findings, func(f Finding, _ int) bool { return f.Level == LevelWarning })
}

// Err converts the hard findings into a single error, or nil when OK.
func (r *Result) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	msgs := lo.Map(errs, func(f Finding, _ int) string { return f.String() })
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate statically checks a descriptor: connection field names and
// control types, object references from action and trigger outputs, and
// action/trigger identifier format.
func Validate(d *descriptor.Descriptor) *Result {
	r := &Result{}

	validateConnection(d, r)

	for _, name := range d.ActionNames() {
		validateOperation(d, name, d.Actions[name], "action", r)
	}
	for _, name := range d.TriggerNames() {
		validateOperation(d, name, &d.Triggers[name].Action, "trigger", r)
	}

	for _, objName := range sortedObjectNames(d) {
		obj := d.Objects[objName]
		validateFields(obj.Fields, "object "+objName, r)
	}

	return r
}

func validateConnection(d *descriptor.Descriptor, r *Result) {
	if d.Connection == nil {
		r.add(LevelError, CodeMalformed, "connection", "descriptor has no connection")
		return
	}
	conn := d.Connection

	seen := make(map[string]bool, len(conn.Fields))
	for i, f := range conn.Fields {
		ctx := fmt.Sprintf("connection field %d", i+1)
		if f.Name == "" {
			r.add(LevelError, CodeMalformed, ctx, "field name must not be empty")
			continue
		}
		ctx = "connection field " + f.Name
		if seen[f.Name] {
			r.add(LevelError, CodeMalformed, ctx, "duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
		if f.Control != "" && !f.Control.Known() {
			r.add(LevelWarning, CodeUnknownControl, ctx, "unknown control type %q", f.Control)
		}
	}

	// Every field the base URI or authorization reads must be declared.
	for _, ref := range descriptor.TemplateRefs(conn.BaseURI) {
		if !conn.HasField(ref) {
			r.add(LevelError, CodeMalformed, "connection base_uri", "references undeclared field %q", ref)
		}
	}
	if tf := conn.Authorization.TokenField; tf != "" && !conn.HasField(tf) {
		r.add(LevelError, CodeMalformed, "connection authorization", "token_field %q is not a declared field", tf)
	}
}

func validateOperation(d *descriptor.Descriptor, name string, op *descriptor.Action, kind string, r *Result) {
	ctx := kind + " " + name

	if !identRe.MatchString(name) {
		r.add(LevelError, CodeInvalidIdent, ctx, "name %q must match ^[a-z][a-z0-9_]*$", name)
	}

	validateFields(op.Input, ctx, r)

	if ref := op.Output.Object; ref != "" {
		if _, ok := d.Object(ref); !ok {
			r.add(LevelError, CodeDanglingObject, ctx, "output_fields references undefined object %q", ref)
		}
	}
}

func validateFields(fields []descriptor.Field, ctx string, r *Result) {
	for _, f := range fields {
		if f.Name == "" {
			r.add(LevelError, CodeMalformed, ctx, "field name must not be empty")
			continue
		}
		if f.Type != "" && !f.Type.Known() {
			r.add(LevelWarning, CodeUnknownFieldType, ctx+" field "+f.Name, "unknown field type %q", f.Type)
		}
	}
}

func sortedObjectNames(d *descriptor.Descriptor) []string {
	names := lo.Keys(d.Objects)
	sort.Strings(names)
	return names
}
