/*
   Copyright 2026 The MAST-HLSP Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package param models the free-form named parameters an HLSP document
// carries grouped by template section (for example "provenance" or
// "metadataList").
//
// Parameter values are a tagged union with explicit string, number and
// list variants rather than an untyped any, so that the export path never
// has to guess how a value coerces into template text.
package param

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	hlsperrors "github.com/spacetelescope/MAST-HLSP/hlspcore/errors"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model"
)

// PlaceholderSuffix is the sentinel a static-values entry ends with when
// its real value must be computed from the product at derivation time.
const PlaceholderSuffix = ">"

// ValueKind discriminates the variants of a parameter Value.
type ValueKind uint8

const (
	// KindString is the variant holding free text. It is the zero value:
	// an unset Value is an empty string.
	KindString ValueKind = iota

	// KindNumber is the variant holding a numeric value.
	KindNumber

	// KindList is the variant holding an ordered list of strings.
	KindList
)

// String constants for ValueKind values used in parsing and diagnostics.
const (
	KindStringStr = "string"
	KindNumberStr = "number"
	KindListStr   = "list"
)

// ParseValueKind parses a string into a validated ValueKind value. Input
// is trimmed and lowercased before matching.
func ParseValueKind(s string) (ValueKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case KindStringStr:
		return KindString, nil
	case KindNumberStr:
		return KindNumber, nil
	case KindListStr:
		return KindList, nil
	default:
		return KindString, &hlsperrors.ParseError{Type: "ValueKind", Value: s}
	}
}

// String returns the canonical string representation of the ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return KindStringStr
	case KindNumber:
		return KindNumberStr
	case KindList:
		return KindListStr
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Validate checks whether this ValueKind is a known value.
func (k ValueKind) Validate() error {
	switch k {
	case KindString, KindNumber, KindList:
		return nil
	default:
		return &hlsperrors.MarshalError{Type: "ValueKind", Value: int(k)}
	}
}

// Value is a tagged parameter value: exactly one variant is meaningful,
// selected by Kind. The zero value is the empty string variant.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	list []string
}

// Compile-time checks for the model contracts.
var (
	_ model.Model             = (*Value)(nil)
	_ model.Comparable[Value] = Value{}
	_ model.Cloneable[Value]  = Value{}
)

// StringValue returns the string-variant Value.
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// NumberValue returns the number-variant Value.
func NumberValue(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// ListValue returns the list-variant Value holding a copy of the given
// items.
func ListValue(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// FromAny converts a loosely typed value (as decoded from YAML) into a
// tagged Value. Strings, booleans, integers, floats and sequences of any
// of those are accepted; anything else is a type-mismatch failure.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case string:
		return StringValue(t), nil
	case bool:
		return StringValue(strconv.FormatBool(t)), nil
	case int:
		return NumberValue(float64(t)), nil
	case int64:
		return NumberValue(float64(t)), nil
	case float64:
		return NumberValue(t), nil
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			iv, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			if iv.Kind() == KindList {
				return Value{}, &hlsperrors.UnmarshalError{
					Type:   "ParameterValue",
					Reason: "nested lists are not supported",
				}
			}
			items = append(items, iv.Text())
		}
		return ListValue(items...), nil
	default:
		return Value{}, &hlsperrors.UnmarshalError{
			Type:   "ParameterValue",
			Reason: fmt.Sprintf("unsupported value type %T", v),
		}
	}
}

// Kind returns the variant discriminator.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Text renders the value as template text, the form written into an
// exported CAOM template: the string itself, the shortest decimal form of
// the number, or the comma-joined list items.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindList:
		return strings.Join(v.list, ", ")
	default:
		return v.str
	}
}

// Number returns the numeric variant's value, or 0 for other variants.
func (v Value) Number() float64 {
	return v.num
}

// List returns a copy of the list variant's items, or nil for other
// variants.
func (v Value) List() []string {
	if v.kind != KindList {
		return nil
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp
}

// HasPlaceholder reports whether the value is a string ending in the
// placeholder sentinel, marking it for computed-default substitution.
func (v Value) HasPlaceholder() bool {
	return v.kind == KindString && strings.HasSuffix(v.str, PlaceholderSuffix)
}

// String returns the human-readable representation of the Value.
func (v Value) String() string {
	return fmt.Sprintf("ParameterValue{Kind:%s, Text:%s}", v.kind, v.Text())
}

// Redacted returns a safe representation of the Value for production
// logging. Parameter values are not sensitive, so it matches String.
func (v Value) Redacted() string {
	return v.String()
}

// TypeName returns the name of this type for error messages and debugging.
func (v Value) TypeName() string {
	return "ParameterValue"
}

// IsZero reports whether this Value is the empty string variant.
func (v Value) IsZero() bool {
	return v.kind == KindString && v.str == ""
}

// Equal reports whether this Value equals another Value: same variant,
// same payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == other.num
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
		return true
	default:
		return v.str == other.str
	}
}

// Clone creates a deep copy of this Value.
func (v Value) Clone() Value {
	if v.kind == KindList {
		return ListValue(v.list...)
	}
	return v
}

// Validate checks whether this Value carries a known variant.
func (v Value) Validate() error {
	return v.kind.Validate()
}

// MarshalJSON serializes the Value as its underlying scalar or list.
func (v Value) MarshalJSON() ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", v.TypeName(), err)
	}
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindList:
		return json.Marshal(v.list)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON deserializes a Value from its underlying scalar or list.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cannot unmarshal JSON into %s: %w", v.TypeName(), err)
	}

	parsed, err := FromAny(raw)
	if err != nil {
		return fmt.Errorf("cannot parse %s from JSON: %w", v.TypeName(), err)
	}

	*v = parsed
	return nil
}

// MarshalYAML serializes the Value as its underlying scalar or list.
func (v Value) MarshalYAML() (interface{}, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", v.TypeName(), err)
	}
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindList:
		return v.list, nil
	default:
		return v.str, nil
	}
}

// UnmarshalYAML deserializes a Value from its underlying scalar or list.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("cannot unmarshal YAML into %s: %w", v.TypeName(), err)
	}

	parsed, err := FromAny(raw)
	if err != nil {
		return fmt.Errorf("cannot parse %s from YAML: %w", v.TypeName(), err)
	}

	*v = parsed
	return nil
}

// Sections maps template section names (for example "provenance") to
// parameter name/value pairs destined for that section of the exported
// template.
//
// The zero value is an empty, ready-to-use Sections. Sections is not safe
// for concurrent mutation.
type Sections struct {
	sections map[string]map[string]Value
}

// Compile-time checks for the model contracts.
var _ model.Model = (*Sections)(nil)

// Set stores a parameter value under the given section and name, creating
// the section as needed and overwriting any prior value.
func (p *Sections) Set(section, name string, v Value) {
	if p.sections == nil {
		p.sections = make(map[string]map[string]Value)
	}
	if p.sections[section] == nil {
		p.sections[section] = make(map[string]Value)
	}
	p.sections[section][name] = v
}

// Get returns the value stored under the given section and name, if any.
func (p *Sections) Get(section, name string) (Value, bool) {
	v, ok := p.sections[section][name]
	return v, ok
}

// SectionNames returns the section names in sorted order.
func (p *Sections) SectionNames() []string {
	out := make([]string, 0, len(p.sections))
	for name := range p.sections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Names returns the parameter names within a section in sorted order.
func (p *Sections) Names(section string) []string {
	out := make([]string, 0, len(p.sections[section]))
	for name := range p.sections[section] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the total number of parameters across all sections.
func (p *Sections) Len() int {
	n := 0
	for _, params := range p.sections {
		n += len(params)
	}
	return n
}

// Clear removes every section.
func (p *Sections) Clear() {
	p.sections = nil
}

// String returns a short human-readable summary of the sections.
func (p *Sections) String() string {
	return fmt.Sprintf("ParameterSections{Sections:[%s], Len:%d}",
		strings.Join(p.SectionNames(), " "), p.Len())
}

// Redacted returns a safe representation of the sections for production
// logging.
func (p *Sections) Redacted() string {
	return p.String()
}

// TypeName returns the name of this type for error messages and debugging.
func (p *Sections) TypeName() string {
	return "ParameterSections"
}

// IsZero reports whether no parameters are stored.
func (p *Sections) IsZero() bool {
	return p.Len() == 0
}

// Validate checks every stored value.
func (p *Sections) Validate() error {
	for _, section := range p.SectionNames() {
		for _, name := range p.Names(section) {
			if err := p.sections[section][name].Validate(); err != nil {
				return fmt.Errorf("%s %s.%s: %w", p.TypeName(), section, name, err)
			}
		}
	}
	return nil
}

// MarshalJSON serializes the sections as a nested object.
func (p *Sections) MarshalJSON() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", p.TypeName(), err)
	}
	if p.sections == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.sections)
}

// UnmarshalJSON deserializes the sections from a nested object.
func (p *Sections) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cannot unmarshal JSON into %s: %w", p.TypeName(), err)
	}
	p.sections = raw
	return nil
}

// MarshalYAML serializes the sections as a nested mapping.
func (p *Sections) MarshalYAML() (interface{}, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", p.TypeName(), err)
	}
	if p.sections == nil {
		return map[string]map[string]Value{}, nil
	}
	return p.sections, nil
}

// UnmarshalYAML deserializes the sections from a nested mapping.
func (p *Sections) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]map[string]Value
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("cannot unmarshal YAML into %s: %w", p.TypeName(), err)
	}
	p.sections = raw
	return nil
}
