package fixture

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Scrubber substitutes placeholder tokens for named runtime secrets so
// the literal values never reach a persisted fixture. Replay compares
// against the scrubbed form, so the substitution never needs reversing.
type Scrubber struct {
	secrets []secretPair
}

type secretPair struct {
	value       string
	placeholder string
}

// NewScrubber builds a scrubber from named secret values. Empty values
// are skipped so they cannot blank out whole payloads.
func NewScrubber(secrets map[string]string) *Scrubber {
	s := &Scrubber{}
	for _, name := range sortedKeys(secrets) {
		if v := secrets[name]; v != "" {
			s.secrets = append(s.secrets, secretPair{value: v, placeholder: Placeholder(name)})
		}
	}
	return s
}

// Placeholder is the token written in place of the secret named name.
func Placeholder(name string) string {
	return "<<" + strings.ToUpper(name) + ">>"
}

// Apply replaces every known secret value in the input string.
func (s *Scrubber) Apply(in string) string {
	for _, p := range s.secrets {
		in = strings.ReplaceAll(in, p.value, p.placeholder)
	}
	return in
}

// Interaction returns a copy of the interaction with all known secrets
// replaced in the URI, bodies, and header values.
func (s *Scrubber) Interaction(in Interaction) Interaction {
	out := in
	out.URI = s.Apply(in.URI)
	out.RequestBody = s.Apply(in.RequestBody)
	out.ResponseBody = s.Apply(in.ResponseBody)
	if len(in.ResponseHeaders) > 0 {
		out.ResponseHeaders = lo.MapValues(in.ResponseHeaders, func(v string, _ string) string {
			return s.Apply(v)
		})
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
