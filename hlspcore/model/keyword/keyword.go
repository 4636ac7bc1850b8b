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

// Package keyword implements the reconciliation primitives of the HLSP
// metadata pipeline: KeywordRecord, a single FITS/CAOM metadata field, and
// Set, an ordered deduplicated collection of records supporting structural
// merge and asymmetric diff.
//
// The merge/diff pair is how a pipeline re-run avoids clobbering operator
// edits with freshly re-derived template keywords, and how a document
// reloaded from disk reconstructs the exact override state without
// persisting the full standard set.
package keyword

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	hlsperrors "github.com/spacetelescope/MAST-HLSP/hlspcore/errors"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model"
)

// DefaultXMLParent is the CAOM template section a keyword is exported under
// when its template entry does not name one.
const DefaultXMLParent = "metadataList"

// Source marks where a keyword record originated.
type Source string

const (
	// SourceStandard marks a record derived mechanically from a file-type
	// template.
	SourceStandard Source = "standard"

	// SourceOverride marks a record created or edited by an operator.
	SourceOverride Source = "override"
)

// Record represents one named metadata field moving through the pipeline.
//
// FitsKeyword is the identity of the record: no two records in a Set share
// one. CaomKeyword is the archive-side name the field is exported under.
// The remaining fields are the auxiliary parameters carried by a template
// entry or an operator edit.
//
// Records are created from a template entry (Source = SourceStandard) or
// from a user edit (Source = SourceOverride), mutated in place via Update,
// and never deleted individually; reconciliation supersedes them instead.
type Record struct {
	// FitsKeyword is the source-format keyword name, unique within any
	// Set the record belongs to. Stored uppercased, FITS convention.
	FitsKeyword string `json:"fits_keyword" yaml:"fits_keyword"`

	// CaomKeyword is the archive-keyword form the field is exported
	// under.
	CaomKeyword string `json:"caom_keyword,omitempty" yaml:"caom_keyword,omitempty"`

	// CaomStatus describes how the archive treats the keyword
	// (for example "required", "recommended").
	CaomStatus string `json:"caom_status,omitempty" yaml:"caom_status,omitempty"`

	// HlspStatus describes how the HLSP checks treat the keyword.
	HlspStatus string `json:"hlsp_status,omitempty" yaml:"hlsp_status,omitempty"`

	// DataType is the expected FITS value type ("str", "int", "float").
	DataType string `json:"data_type,omitempty" yaml:"data_type,omitempty"`

	// Default is the value recorded for the keyword. Stored as text;
	// DataType says how downstream consumers interpret it.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`

	// Header is the index of the FITS HDU the keyword is read from.
	Header int `json:"header,omitempty" yaml:"header,omitempty"`

	// Multiple reports whether the keyword may appear in multiple HDUs.
	Multiple bool `json:"multiple,omitempty" yaml:"multiple,omitempty"`

	// XMLParent is the CAOM template section the keyword is exported
	// under. Empty means DefaultXMLParent.
	XMLParent string `json:"xml_parent,omitempty" yaml:"xml_parent,omitempty"`

	// Source marks the record's origin. Source never participates in
	// diffing: an operator re-stating a standard value is not a change.
	Source Source `json:"source,omitempty" yaml:"source,omitempty"`
}

// Compile-time checks for the model contracts.
var (
	_ model.Model              = (*Record)(nil)
	_ model.Comparable[Record] = Record{}
	_ model.Cloneable[Record]  = Record{}
)

// Fields is the structural-update payload for a Record. A nil pointer means
// "not supplied, leave the record's field untouched"; a non-nil pointer
// overwrites, including with a zero value. This mirrors the optional
// per-key shape of a template entry.
type Fields struct {
	CaomKeyword *string
	CaomStatus  *string
	HlspStatus  *string
	DataType    *string
	Default     *string
	Header      *int
	Multiple    *bool
	XMLParent   *string
}

// IsZero reports whether no field is supplied.
func (f Fields) IsZero() bool {
	return f.CaomKeyword == nil && f.CaomStatus == nil && f.HlspStatus == nil &&
		f.DataType == nil && f.Default == nil && f.Header == nil &&
		f.Multiple == nil && f.XMLParent == nil
}

// ParseFields converts a loosely typed template entry (keyword parameter
// name to value, as decoded from a YAML template) into a Fields payload.
//
// Unknown parameter names fail fast with a ParseError; a template carrying
// keys this library does not understand is a template this library cannot
// faithfully reproduce. Values of an unexpected type fail with an
// UnmarshalError.
func ParseFields(params map[string]any) (Fields, error) {
	var f Fields

	for key, val := range params {
		switch key {
		case "caom_keyword":
			s, err := stringParam(key, val)
			if err != nil {
				return Fields{}, err
			}
			f.CaomKeyword = &s
		case "caom_status":
			s, err := stringParam(key, val)
			if err != nil {
				return Fields{}, err
			}
			f.CaomStatus = &s
		case "hlsp_status":
			s, err := stringParam(key, val)
			if err != nil {
				return Fields{}, err
			}
			f.HlspStatus = &s
		case "data_type":
			s, err := stringParam(key, val)
			if err != nil {
				return Fields{}, err
			}
			f.DataType = &s
		case "default":
			// Template defaults may be numeric; carry them as text.
			s := fmt.Sprint(val)
			f.Default = &s
		case "header":
			n, ok := val.(int)
			if !ok {
				return Fields{}, &hlsperrors.UnmarshalError{
					Type:   "KeywordFields",
					Reason: fmt.Sprintf("parameter %q must be an integer, got %T", key, val),
				}
			}
			f.Header = &n
		case "multiple":
			b, ok := val.(bool)
			if !ok {
				return Fields{}, &hlsperrors.UnmarshalError{
					Type:   "KeywordFields",
					Reason: fmt.Sprintf("parameter %q must be a boolean, got %T", key, val),
				}
			}
			f.Multiple = &b
		case "xml_parent":
			s, err := stringParam(key, val)
			if err != nil {
				return Fields{}, err
			}
			f.XMLParent = &s
		default:
			return Fields{}, &hlsperrors.ParseError{Type: "KeywordFields", Value: key}
		}
	}

	return f, nil
}

func stringParam(key string, val any) (string, error) {
	s, ok := val.(string)
	if !ok {
		return "", &hlsperrors.UnmarshalError{
			Type:   "KeywordFields",
			Reason: fmt.Sprintf("parameter %q must be a string, got %T", key, val),
		}
	}
	return s, nil
}

// NewRecord creates a Record for the given FITS keyword with the supplied
// field payload and source marker. The keyword is trimmed and uppercased;
// an empty keyword is rejected.
func NewRecord(fitsKeyword string, f Fields, source Source) (Record, error) {
	r := Record{
		FitsKeyword: strings.ToUpper(strings.TrimSpace(fitsKeyword)),
		XMLParent:   DefaultXMLParent,
		Source:      source,
	}
	r.Update(f)

	if err := r.Validate(); err != nil {
		return Record{}, err
	}

	return r, nil
}

// Update performs the structural merge of §keyword reconciliation: every
// supplied (non-nil) field of f overwrites the corresponding field of the
// record, all other fields are left untouched. It reports whether any field
// actually changed value.
//
// Update is the one documented in-place mutation in hlspcore. Identity
// (FitsKeyword) and Source are never touched by Update.
func (r *Record) Update(f Fields) bool {
	changed := false

	if f.CaomKeyword != nil && r.CaomKeyword != *f.CaomKeyword {
		r.CaomKeyword = *f.CaomKeyword
		changed = true
	}
	if f.CaomStatus != nil && r.CaomStatus != *f.CaomStatus {
		r.CaomStatus = *f.CaomStatus
		changed = true
	}
	if f.HlspStatus != nil && r.HlspStatus != *f.HlspStatus {
		r.HlspStatus = *f.HlspStatus
		changed = true
	}
	if f.DataType != nil && r.DataType != *f.DataType {
		r.DataType = *f.DataType
		changed = true
	}
	if f.Default != nil && r.Default != *f.Default {
		r.Default = *f.Default
		changed = true
	}
	if f.Header != nil && r.Header != *f.Header {
		r.Header = *f.Header
		changed = true
	}
	if f.Multiple != nil && r.Multiple != *f.Multiple {
		r.Multiple = *f.Multiple
		changed = true
	}
	if f.XMLParent != nil && r.XMLParent != *f.XMLParent {
		r.XMLParent = *f.XMLParent
		changed = true
	}

	return changed
}

// Delta computes the minimal Fields payload that, applied to other via
// Update, would make other's compared fields match r. It reports whether
// any field differs. Source is excluded from the comparison.
func (r Record) Delta(other Record) (Fields, bool) {
	var f Fields
	changed := false

	if r.CaomKeyword != other.CaomKeyword {
		v := r.CaomKeyword
		f.CaomKeyword = &v
		changed = true
	}
	if r.CaomStatus != other.CaomStatus {
		v := r.CaomStatus
		f.CaomStatus = &v
		changed = true
	}
	if r.HlspStatus != other.HlspStatus {
		v := r.HlspStatus
		f.HlspStatus = &v
		changed = true
	}
	if r.DataType != other.DataType {
		v := r.DataType
		f.DataType = &v
		changed = true
	}
	if r.Default != other.Default {
		v := r.Default
		f.Default = &v
		changed = true
	}
	if r.Header != other.Header {
		v := r.Header
		f.Header = &v
		changed = true
	}
	if r.Multiple != other.Multiple {
		v := r.Multiple
		f.Multiple = &v
		changed = true
	}
	if r.XMLParent != other.XMLParent {
		v := r.XMLParent
		f.XMLParent = &v
		changed = true
	}

	return f, changed
}

// Fields returns the full field payload of the record, every field
// supplied. Applying it to a freshly derived standard record reconstructs
// this record exactly.
func (r Record) Fields() Fields {
	caomKeyword := r.CaomKeyword
	caomStatus := r.CaomStatus
	hlspStatus := r.HlspStatus
	dataType := r.DataType
	def := r.Default
	header := r.Header
	multiple := r.Multiple
	xmlParent := r.XMLParent

	return Fields{
		CaomKeyword: &caomKeyword,
		CaomStatus:  &caomStatus,
		HlspStatus:  &hlspStatus,
		DataType:    &dataType,
		Default:     &def,
		Header:      &header,
		Multiple:    &multiple,
		XMLParent:   &xmlParent,
	}
}

// NonZeroFields returns the field payload carrying only the record's
// non-zero fields. This is the replay form of an update record: a diff
// delta persisted to disk round-trips through NonZeroFields when it is
// merged back onto a freshly derived standard record, so the untouched
// standard fields survive.
func (r Record) NonZeroFields() Fields {
	var f Fields

	if r.CaomKeyword != "" {
		v := r.CaomKeyword
		f.CaomKeyword = &v
	}
	if r.CaomStatus != "" {
		v := r.CaomStatus
		f.CaomStatus = &v
	}
	if r.HlspStatus != "" {
		v := r.HlspStatus
		f.HlspStatus = &v
	}
	if r.DataType != "" {
		v := r.DataType
		f.DataType = &v
	}
	if r.Default != "" {
		v := r.Default
		f.Default = &v
	}
	if r.Header != 0 {
		v := r.Header
		f.Header = &v
	}
	if r.Multiple {
		v := r.Multiple
		f.Multiple = &v
	}
	if r.XMLParent != "" {
		v := r.XMLParent
		f.XMLParent = &v
	}

	return f
}

// String returns the human-readable representation of the Record.
func (r Record) String() string {
	return fmt.Sprintf("KeywordRecord{Fits:%s, Caom:%s, Default:%s, Source:%s}",
		r.FitsKeyword, r.CaomKeyword, r.Default, r.Source)
}

// Redacted returns a safe representation of the Record for production
// logging. Keyword metadata is not sensitive, so it matches String.
func (r Record) Redacted() string {
	return r.String()
}

// TypeName returns the name of this type for error messages and debugging.
func (r Record) TypeName() string {
	return "KeywordRecord"
}

// IsZero reports whether this Record is the zero value.
func (r Record) IsZero() bool {
	return r == Record{}
}

// Equal reports whether this Record equals another Record in all fields,
// including Source. Reconciliation compares via Delta instead, which
// excludes Source.
func (r Record) Equal(other Record) bool {
	return r == other
}

// Clone creates a copy of this Record. Record contains no reference types,
// so a value copy is a deep copy.
func (r Record) Clone() Record {
	return r
}

// SortKey returns the natural ordering key used when inserting keywords
// into an exported template: archive keyword first, FITS keyword as the
// tiebreak for records not yet mapped to a CAOM name.
func (r Record) SortKey() string {
	if r.CaomKeyword != "" {
		return r.CaomKeyword + "\x00" + r.FitsKeyword
	}
	return "\x7f" + r.FitsKeyword
}

// Validate checks whether this Record satisfies its invariants:
//   - FitsKeyword is non-empty and uppercase
//   - Header is non-negative
//   - Source, when set, is one of the known markers
func (r Record) Validate() error {
	if r.FitsKeyword == "" {
		return &hlsperrors.ValidationError{
			Type: r.TypeName(), Field: "FitsKeyword", Reason: "must not be empty",
		}
	}
	if r.FitsKeyword != strings.ToUpper(r.FitsKeyword) {
		return &hlsperrors.ValidationError{
			Type: r.TypeName(), Field: "FitsKeyword",
			Reason: "must be uppercase", Value: r.FitsKeyword,
		}
	}
	if r.Header < 0 {
		return &hlsperrors.ValidationError{
			Type: r.TypeName(), Field: "Header",
			Reason: "must be non-negative", Value: r.Header,
		}
	}
	if r.Source != "" && r.Source != SourceStandard && r.Source != SourceOverride {
		return &hlsperrors.ValidationError{
			Type: r.TypeName(), Field: "Source",
			Reason: "unknown source marker", Value: string(r.Source),
		}
	}
	return nil
}

// MarshalJSON serializes this Record to JSON after validating it.
func (r Record) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", r.TypeName(), err)
	}
	type record Record
	return json.Marshal(record(r))
}

// UnmarshalJSON deserializes a Record from JSON and validates the result.
func (r *Record) UnmarshalJSON(data []byte) error {
	type record Record
	if err := json.Unmarshal(data, (*record)(r)); err != nil {
		return fmt.Errorf("cannot unmarshal JSON into %s: %w", r.TypeName(), err)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("unmarshaled %s is invalid: %w", r.TypeName(), err)
	}
	return nil
}

// MarshalYAML serializes this Record to YAML after validating it.
func (r Record) MarshalYAML() (interface{}, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", r.TypeName(), err)
	}
	type record Record
	return record(r), nil
}

// UnmarshalYAML deserializes a Record from YAML and validates the result.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	type record Record
	if err := node.Decode((*record)(r)); err != nil {
		return fmt.Errorf("cannot unmarshal YAML into %s: %w", r.TypeName(), err)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("unmarshaled %s is invalid: %w", r.TypeName(), err)
	}
	return nil
}
