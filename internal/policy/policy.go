// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"strings"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// Actions.
const (
	ActionDefault = "default"
	ActionSet     = "set"
	ActionRemove  = "remove"
	ActionReject  = "reject"
)

// ErrNotObject is returned for a body that is valid JSON but not an object.
var ErrNotObject = errors.New("request body is not a JSON object")

// Condition matches when Field is present, or absent with Present false, and
// when set, equals Equals.
type Condition struct {
	Field   string `yaml:"field"`
	Present *bool  `yaml:"present,omitempty"`
	Equals  any    `yaml:"equals,omitempty"`
}

// Rule applies Action to Field. Default and set need a Value; reject answers
// with Status and Message. When, if given, gates the rule.
type Rule struct {
	Action  string     `yaml:"action"`
	Field   string     `yaml:"field"`
	Value   any        `yaml:"value,omitempty"`
	Equals  any        `yaml:"equals,omitempty"`
	Status  int        `yaml:"status,omitempty"`
	Message string     `yaml:"message,omitempty"`
	When    *Condition `yaml:"when,omitempty"`
}

// Policy is an ordered list of rules applied to request bodies.
type Policy struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// Rejection is a request refused by a reject rule.
type Rejection struct {
	Status  int
	Message string
	Field   string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("rejected %d: %s", r.Status, r.Message)
}

// Load reads and validates a policy file.
func Load(path string) (*Policy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}
	return Parse(b)
}

// Parse reads a policy from YAML and validates it.
func Parse(b []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every rule names a field and a known action, and that
// default and set rules carry a value.
func (p *Policy) Validate() error {
	for i, r := range p.Rules {
		if r.Field == "" {
			return fmt.Errorf("rule %d: field is required", i)
		}
		switch r.Action {
		case ActionDefault, ActionSet:
			if r.Value == nil {
				return fmt.Errorf("rule %d: %s needs a value", i, r.Action)
			}
		case ActionRemove, ActionReject:
		default:
			return fmt.Errorf("rule %d: unknown action %q", i, r.Action)
		}
		if r.When != nil && r.When.Field == "" {
			return fmt.Errorf("rule %d: when needs a field", i)
		}
	}
	return nil
}

// Apply runs the rules in order against body and returns the transformed
// body. A matching reject rule stops processing with a *Rejection.
func (p *Policy) Apply(body []byte) ([]byte, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, err
	}

	for i, r := range p.Rules {
		if r.When != nil && !r.When.matches(doc) {
			log.Debugf("rule %d (%s %s) skipped by condition", i, r.Action, r.Field)
			continue
		}

		switch r.Action {
		case ActionDefault:
			if _, ok := lookup(doc, r.Field); !ok {
				assign(doc, r.Field, normalize(r.Value))
			}
		case ActionSet:
			assign(doc, r.Field, normalize(r.Value))
		case ActionRemove:
			remove(doc, r.Field)
		case ActionReject:
			v, ok := lookup(doc, r.Field)
			if ok && (r.Equals == nil || equal(v, r.Equals)) {
				return nil, r.rejection()
			}
		}
	}

	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode body: %w", err)
	}
	return out.Bytes(), nil
}

func (r Rule) rejection() *Rejection {
	status := r.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	msg := r.Message
	if msg == "" {
		msg = fmt.Sprintf("field %s is not allowed", r.Field)
	}
	return &Rejection{Status: status, Message: msg, Field: r.Field}
}

func (c *Condition) matches(doc map[string]any) bool {
	v, ok := lookup(doc, c.Field)
	want := true
	if c.Present != nil {
		want = *c.Present
	}
	if ok != want {
		return false
	}
	if c.Equals != nil {
		return ok && equal(v, c.Equals)
	}
	return true
}

func decode(body []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("failed to parse body: %w", err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return doc, nil
}

// normalize turns a YAML value into the shape encoding/json decodes to, so
// integers compare equal to JSON numbers.
func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func equal(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func lookup(doc map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// assign creates intermediate objects as needed. A non-object in the way is
// replaced.
func assign(doc map[string]any, path string, v any) {
	parts := strings.Split(path, ".")
	m := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

func remove(doc map[string]any, path string) {
	parts := strings.Split(path, ".")
	m := doc
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			return
		}
		m = next
	}
	delete(m, parts[len(parts)-1])
}
