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

package keyword

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	hlsperrors "github.com/spacetelescope/MAST-HLSP/hlspcore/errors"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model"
)

// Set is an ordered, deduplicated collection of KeywordRecords.
//
// Insertion order is preserved and FitsKeyword identifiers are unique:
// adding a record whose identifier is already present merges the incoming
// field values into the existing record in place instead of appending a
// duplicate.
//
// The zero value is an empty, ready-to-use Set. Set is not safe for
// concurrent mutation.
type Set struct {
	records []Record
}

// Compile-time checks for the model contracts.
var (
	_ model.Model            = (*Set)(nil)
	_ model.Comparable[*Set] = (*Set)(nil)
)

// NewSet creates a Set pre-populated with the given records, applying the
// usual add-or-merge semantics in order. It fails on the first invalid
// record.
func NewSet(records ...Record) (*Set, error) {
	s := &Set{}
	for _, r := range records {
		if err := s.Add(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Len returns the number of records in the set.
func (s *Set) Len() int {
	return len(s.records)
}

// Records returns a copy of the records in insertion order. Mutating the
// returned slice does not affect the set.
func (s *Set) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns the record with the given FITS keyword identifier, if
// present. Lookup is case-insensitive; identifiers are stored uppercased.
func (s *Set) Get(fitsKeyword string) (Record, bool) {
	id := strings.ToUpper(strings.TrimSpace(fitsKeyword))
	for _, r := range s.records {
		if r.FitsKeyword == id {
			return r, true
		}
	}
	return Record{}, false
}

// Contains reports whether a record with the given identifier is present.
func (s *Set) Contains(fitsKeyword string) bool {
	_, ok := s.Get(fitsKeyword)
	return ok
}

// Add inserts a record into the set. If a record with the same FitsKeyword
// identifier already exists, the incoming record's fields are merged into
// it in place (union-merge via Record.Update with every field supplied);
// otherwise the record is appended, preserving insertion order.
//
// A record that fails validation is rejected before the set is touched;
// this is the type-mismatch guard of the reconciliation contract. The
// caller MUST NOT expect best-effort coercion.
func (s *Set) Add(r Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("cannot add record to %s: %w", s.TypeName(), err)
	}

	for i := range s.records {
		if s.records[i].FitsKeyword == r.FitsKeyword {
			s.records[i].Update(r.Fields())
			return nil
		}
	}

	s.records = append(s.records, r)
	return nil
}

// Apply merges a Fields payload into the record with the given identifier
// and reports whether anything changed. Applying to an absent identifier
// creates the record with the payload and the given source marker.
func (s *Set) Apply(fitsKeyword string, f Fields, source Source) (bool, error) {
	id := strings.ToUpper(strings.TrimSpace(fitsKeyword))
	for i := range s.records {
		if s.records[i].FitsKeyword == id {
			return s.records[i].Update(f), nil
		}
	}

	r, err := NewRecord(id, f, source)
	if err != nil {
		return false, err
	}
	s.records = append(s.records, r)
	return true, nil
}

// Diff computes the minimal update list of this set relative to other:
// for every record in the receiver that is absent from other, the full
// record; for every record present in other with at least one differing
// field, a record carrying the identity plus only the differing fields.
// Records identical in both sets are omitted. Result order follows the
// receiver's insertion order.
//
// Diff is deliberately NOT symmetric: it answers "what does this set carry
// that other does not already capture". Records present only in other are
// ignored, matching the one-directional contract the pipeline depends on
// when computing operator overrides against a freshly derived standard set.
// Source markers never participate in the comparison.
func (s *Set) Diff(other *Set) *Set {
	out := &Set{}

	for _, r := range s.records {
		base, ok := other.Get(r.FitsKeyword)
		if !ok {
			out.records = append(out.records, r.Clone())
			continue
		}

		delta, changed := r.Delta(base)
		if !changed {
			continue
		}

		update := Record{FitsKeyword: r.FitsKeyword, Source: r.Source}
		update.Update(delta)
		out.records = append(out.records, update)
	}

	return out
}

// Sorted returns the records in natural template order (see
// Record.SortKey), leaving the set's insertion order untouched.
func (s *Set) Sorted() []Record {
	out := s.Records()
	sort.Slice(out, func(i, j int) bool {
		return out[i].SortKey() < out[j].SortKey()
	})
	return out
}

// Clone creates a deep copy of the set.
func (s *Set) Clone() *Set {
	return &Set{records: s.Records()}
}

// Clear removes every record from the set.
func (s *Set) Clear() {
	s.records = nil
}

// String returns a short human-readable summary of the set.
func (s *Set) String() string {
	ids := make([]string, len(s.records))
	for i, r := range s.records {
		ids[i] = r.FitsKeyword
	}
	return fmt.Sprintf("KeywordSet{Len:%d, Keywords:[%s]}", len(s.records), strings.Join(ids, " "))
}

// Redacted returns a safe representation of the set for production logging.
func (s *Set) Redacted() string {
	return fmt.Sprintf("KeywordSet{Len:%d}", len(s.records))
}

// TypeName returns the name of this type for error messages and debugging.
func (s *Set) TypeName() string {
	return "KeywordSet"
}

// IsZero reports whether the set is empty.
func (s *Set) IsZero() bool {
	return len(s.records) == 0
}

// Equal reports whether this set and other hold equal records in the same
// order.
func (s *Set) Equal(other *Set) bool {
	if other == nil || len(s.records) != len(other.records) {
		return false
	}
	for i := range s.records {
		if !s.records[i].Equal(other.records[i]) {
			return false
		}
	}
	return true
}

// Validate checks every record and the uniqueness invariant.
func (s *Set) Validate() error {
	seen := make(map[string]struct{}, len(s.records))

	for i, r := range s.records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%s record %d: %w", s.TypeName(), i, err)
		}
		if _, dup := seen[r.FitsKeyword]; dup {
			return &hlsperrors.ValidationError{
				Type: s.TypeName(), Field: "FitsKeyword",
				Reason: "duplicate identifier", Value: r.FitsKeyword,
			}
		}
		seen[r.FitsKeyword] = struct{}{}
	}

	return nil
}

// MarshalJSON serializes the set as a JSON array of records in insertion
// order, after validating it.
func (s *Set) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", s.TypeName(), err)
	}
	return json.Marshal(s.records)
}

// UnmarshalJSON deserializes a JSON array of records, rebuilding the set
// through Add so the dedup-or-merge invariant holds even for hand-edited
// input.
func (s *Set) UnmarshalJSON(data []byte) error {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("cannot unmarshal JSON into %s: %w", s.TypeName(), err)
	}
	return s.rebuild(records)
}

// MarshalYAML serializes the set as a YAML sequence of records in insertion
// order, after validating it.
func (s *Set) MarshalYAML() (interface{}, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", s.TypeName(), err)
	}
	return s.records, nil
}

// UnmarshalYAML deserializes a YAML sequence of records, rebuilding the set
// through Add.
func (s *Set) UnmarshalYAML(node *yaml.Node) error {
	var records []Record
	if err := node.Decode(&records); err != nil {
		return fmt.Errorf("cannot unmarshal YAML into %s: %w", s.TypeName(), err)
	}
	return s.rebuild(records)
}

func (s *Set) rebuild(records []Record) error {
	s.records = nil
	for _, r := range records {
		if err := s.Add(r); err != nil {
			s.records = nil
			return err
		}
	}
	return nil
}
