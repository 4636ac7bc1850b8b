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

// Package filetype models the file-type registry of an HLSP product: which
// file endings the product contains, which FITS metadata standard governs
// each, and whether each participates in the metadata validation checks.
//
// The registry is the input to standard-keyword derivation: the
// deduplicated (product-type, standard) pairs it yields select which
// keyword templates are loaded.
package filetype

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	hlsperrors "github.com/spacetelescope/MAST-HLSP/hlspcore/errors"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model"
)

// Entry describes one file type of an HLSP product.
//
// The zero value is not valid; FileType is required. Entries are stored
// with the type tag lowercased so that ".FITS" and ".fits" name the same
// row.
type Entry struct {
	// FileType is the file ending tag, for example "drz.fits" or
	// ".fits". Unique within a Registry (case-insensitive).
	FileType string `json:"file_type" yaml:"file_type"`

	// Standard names the FITS metadata standard governing files of this
	// type, for example "wfc3".
	Standard string `json:"standard,omitempty" yaml:"standard,omitempty"`

	// ProductType is the science product category, for example "hst" or
	// "image". Combined with Standard it selects a keyword template.
	ProductType string `json:"product_type,omitempty" yaml:"product_type,omitempty"`

	// CaomProductType is the archive-side product classification written
	// to the exported template.
	CaomProductType string `json:"caom_product_type,omitempty" yaml:"caom_product_type,omitempty"`

	// RunCheck reports whether files of this type participate in the
	// metadata validation stages.
	RunCheck bool `json:"run_check" yaml:"run_check"`

	// MRPCheck reports whether files of this type count toward the
	// minimum recommended products requirement.
	MRPCheck bool `json:"mrp_check,omitempty" yaml:"mrp_check,omitempty"`
}

// Compile-time checks for the model contracts.
var (
	_ model.Model             = (*Entry)(nil)
	_ model.Comparable[Entry] = Entry{}
	_ model.Cloneable[Entry]  = Entry{}
)

// NewEntry creates a validated Entry with a normalized (lowercased,
// trimmed) file-type tag.
func NewEntry(fileType, standard, productType string, runCheck bool) (Entry, error) {
	e := Entry{
		FileType:    strings.ToLower(strings.TrimSpace(fileType)),
		Standard:    standard,
		ProductType: productType,
		RunCheck:    runCheck,
	}

	if err := e.Validate(); err != nil {
		return Entry{}, err
	}

	return e, nil
}

// StandardName returns the template name this entry derives keywords from:
// "<product-type>_<standard>", or "" when the entry does not participate
// in derivation (RunCheck unset, or either half missing).
func (e Entry) StandardName() string {
	if !e.RunCheck || e.Standard == "" || e.ProductType == "" {
		return ""
	}
	return e.ProductType + "_" + e.Standard
}

// String returns the human-readable representation of the Entry.
func (e Entry) String() string {
	return fmt.Sprintf("FileTypeEntry{Type:%s, Standard:%s, ProductType:%s, RunCheck:%t}",
		e.FileType, e.Standard, e.ProductType, e.RunCheck)
}

// Redacted returns a safe representation of the Entry for production
// logging. File-type rows are not sensitive, so it matches String.
func (e Entry) Redacted() string {
	return e.String()
}

// TypeName returns the name of this type for error messages and debugging.
func (e Entry) TypeName() string {
	return "FileTypeEntry"
}

// IsZero reports whether this Entry is the zero value.
func (e Entry) IsZero() bool {
	return e == Entry{}
}

// Equal reports whether this Entry equals another Entry in all fields.
func (e Entry) Equal(other Entry) bool {
	return e == other
}

// Clone creates a copy of this Entry. Entry contains no reference types,
// so a value copy is a deep copy.
func (e Entry) Clone() Entry {
	return e
}

// Validate checks whether this Entry satisfies its invariants.
func (e Entry) Validate() error {
	if e.FileType == "" {
		return &hlsperrors.ValidationError{
			Type: e.TypeName(), Field: "FileType", Reason: "must not be empty",
		}
	}
	if e.FileType != strings.ToLower(e.FileType) {
		return &hlsperrors.ValidationError{
			Type: e.TypeName(), Field: "FileType",
			Reason: "must be lowercase", Value: e.FileType,
		}
	}
	return nil
}

// MarshalJSON serializes this Entry to JSON after validating it.
func (e Entry) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", e.TypeName(), err)
	}
	type entry Entry
	return json.Marshal(entry(e))
}

// UnmarshalJSON deserializes an Entry from JSON and validates the result.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type entry Entry
	if err := json.Unmarshal(data, (*entry)(e)); err != nil {
		return fmt.Errorf("cannot unmarshal JSON into %s: %w", e.TypeName(), err)
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("unmarshaled %s is invalid: %w", e.TypeName(), err)
	}
	return nil
}

// MarshalYAML serializes this Entry to YAML after validating it.
func (e Entry) MarshalYAML() (interface{}, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", e.TypeName(), err)
	}
	type entry Entry
	return entry(e), nil
}

// UnmarshalYAML deserializes an Entry from YAML and validates the result.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	type entry Entry
	if err := node.Decode((*entry)(e)); err != nil {
		return fmt.Errorf("cannot unmarshal YAML into %s: %w", e.TypeName(), err)
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("unmarshaled %s is invalid: %w", e.TypeName(), err)
	}
	return nil
}

// Registry is an ordered collection of file-type entries, deduplicated by
// type tag.
//
// The zero value is an empty, ready-to-use Registry. Registry is not safe
// for concurrent mutation.
type Registry struct {
	entries []Entry
}

// Compile-time checks for the model contracts.
var _ model.Model = (*Registry)(nil)

// Len returns the number of entries in the registry.
func (g *Registry) Len() int {
	return len(g.entries)
}

// Entries returns a copy of the entries in insertion order.
func (g *Registry) Entries() []Entry {
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Add inserts an entry into the registry. An entry whose type tag is
// already registered is skipped: the registry keeps the first row for a
// tag, so re-registering a file type is a no-op rather than an overwrite.
// Invalid entries are rejected with the validation error.
func (g *Registry) Add(e Entry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("cannot add entry to %s: %w", g.TypeName(), err)
	}

	if g.Contains(e.FileType) {
		return nil
	}

	g.entries = append(g.entries, e)
	return nil
}

// Find returns the entry with the given type tag, if present. Lookup is
// case-insensitive.
func (g *Registry) Find(fileType string) (Entry, bool) {
	tag := strings.ToLower(strings.TrimSpace(fileType))
	for _, e := range g.entries {
		if e.FileType == tag {
			return e, true
		}
	}
	return Entry{}, false
}

// Contains reports whether an entry with the given type tag is registered.
func (g *Registry) Contains(fileType string) bool {
	_, ok := g.Find(fileType)
	return ok
}

// Remove deletes the entry with the given type tag and reports whether an
// entry was removed.
func (g *Registry) Remove(fileType string) bool {
	tag := strings.ToLower(strings.TrimSpace(fileType))
	for i, e := range g.entries {
		if e.FileType == tag {
			g.entries = append(g.entries[:i], g.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every entry from the registry.
func (g *Registry) Clear() {
	g.entries = nil
}

// CheckExtensions returns the type tags of all entries participating in
// the metadata validation stages, in insertion order.
func (g *Registry) CheckExtensions() []string {
	var out []string
	for _, e := range g.entries {
		if e.RunCheck {
			out = append(out, e.FileType)
		}
	}
	return out
}

// Standards returns the deduplicated template names derived from the
// registered entries (see Entry.StandardName), in first-appearance order.
// An empty result means standard-keyword derivation has nothing to do.
func (g *Registry) Standards() []string {
	var out []string
	seen := make(map[string]struct{})

	for _, e := range g.entries {
		name := e.StandardName()
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	return out
}

// SortedByType returns the entries ordered by type tag, the order file
// types are inserted into an exported template.
func (g *Registry) SortedByType() []Entry {
	out := g.Entries()
	sort.Slice(out, func(i, j int) bool {
		return out[i].FileType < out[j].FileType
	})
	return out
}

// String returns a short human-readable summary of the registry.
func (g *Registry) String() string {
	tags := make([]string, len(g.entries))
	for i, e := range g.entries {
		tags[i] = e.FileType
	}
	return fmt.Sprintf("FileTypeRegistry{Len:%d, Types:[%s]}", len(g.entries), strings.Join(tags, " "))
}

// Redacted returns a safe representation of the registry for production
// logging.
func (g *Registry) Redacted() string {
	return fmt.Sprintf("FileTypeRegistry{Len:%d}", len(g.entries))
}

// TypeName returns the name of this type for error messages and debugging.
func (g *Registry) TypeName() string {
	return "FileTypeRegistry"
}

// IsZero reports whether the registry is empty.
func (g *Registry) IsZero() bool {
	return len(g.entries) == 0
}

// Validate checks every entry and the tag-uniqueness invariant.
func (g *Registry) Validate() error {
	seen := make(map[string]struct{}, len(g.entries))

	for i, e := range g.entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%s entry %d: %w", g.TypeName(), i, err)
		}
		if _, dup := seen[e.FileType]; dup {
			return &hlsperrors.ValidationError{
				Type: g.TypeName(), Field: "FileType",
				Reason: "duplicate type tag", Value: e.FileType,
			}
		}
		seen[e.FileType] = struct{}{}
	}

	return nil
}

// MarshalJSON serializes the registry as a JSON array of entries in
// insertion order, after validating it.
func (g *Registry) MarshalJSON() ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", g.TypeName(), err)
	}
	return json.Marshal(g.entries)
}

// UnmarshalJSON deserializes a JSON array of entries, rebuilding the
// registry through Add so the dedup invariant holds.
func (g *Registry) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("cannot unmarshal JSON into %s: %w", g.TypeName(), err)
	}
	return g.rebuild(entries)
}

// MarshalYAML serializes the registry as a YAML sequence of entries in
// insertion order, after validating it.
func (g *Registry) MarshalYAML() (interface{}, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", g.TypeName(), err)
	}
	return g.entries, nil
}

// UnmarshalYAML deserializes a YAML sequence of entries, rebuilding the
// registry through Add.
func (g *Registry) UnmarshalYAML(node *yaml.Node) error {
	var entries []Entry
	if err := node.Decode(&entries); err != nil {
		return fmt.Errorf("cannot unmarshal YAML into %s: %w", g.TypeName(), err)
	}
	return g.rebuild(entries)
}

func (g *Registry) rebuild(entries []Entry) error {
	g.entries = nil
	for _, e := range entries {
		if err := g.Add(e); err != nil {
			g.entries = nil
			return err
		}
	}
	return nil
}
