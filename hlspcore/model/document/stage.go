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

package document

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	hlsperrors "github.com/spacetelescope/MAST-HLSP/hlspcore/errors"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model"
)

// Stage identifies one ordered step of the HLSP ingestion pipeline.
//
// The pipeline is fixed: five stages, always run in order, each leaving a
// completion flag and an output file behind. Stage values double as indices
// into a StageSet.
type Stage uint8

const (
	// StageFilenamesChecked is the first stage: product file names have
	// been validated against the HLSP naming convention.
	StageFilenamesChecked Stage = iota

	// StageMetadataPrechecked is the second stage: a fast pre-scan of the
	// data files has established which metadata checks apply.
	StageMetadataPrechecked

	// StageMetadataChecked is the third stage: file metadata has been
	// validated against the governing FITS standards.
	StageMetadataChecked

	// StageKeywordsSet is the fourth stage: FITS keyword records have
	// been reviewed and any operator overrides recorded.
	StageKeywordsSet

	// StageParametersAdded is the fifth and final stage: free-form value
	// parameters have been added. Once complete, the document is
	// ingestion-ready.
	StageParametersAdded
)

// StageCount is the number of pipeline stages.
const StageCount = 5

// String constants for Stage values. These are the persisted flag names in
// the Ingest section of a .hlsp document; the numeric prefix keeps them
// sorted in pipeline order in any alphabetized output.
const (
	StageFilenamesCheckedStr   = "00_filenames_checked"
	StageMetadataPrecheckedStr = "01_metadata_prechecked"
	StageMetadataCheckedStr    = "02_metadata_checked"
	StageKeywordsSetStr        = "03_fits_keywords_set"
	StageParametersAddedStr    = "04_value_parameters_added"
)

// Stages returns all pipeline stages in order.
func Stages() [StageCount]Stage {
	return [StageCount]Stage{
		StageFilenamesChecked,
		StageMetadataPrechecked,
		StageMetadataChecked,
		StageKeywordsSet,
		StageParametersAdded,
	}
}

// ParseStage parses a persisted stage flag name into a validated Stage.
func ParseStage(s string) (Stage, error) {
	switch s {
	case StageFilenamesCheckedStr:
		return StageFilenamesChecked, nil
	case StageMetadataPrecheckedStr:
		return StageMetadataPrechecked, nil
	case StageMetadataCheckedStr:
		return StageMetadataChecked, nil
	case StageKeywordsSetStr:
		return StageKeywordsSet, nil
	case StageParametersAddedStr:
		return StageParametersAdded, nil
	default:
		return StageFilenamesChecked, &hlsperrors.ParseError{Type: "Stage", Value: s}
	}
}

// String returns the canonical persisted name of the Stage.
func (s Stage) String() string {
	switch s {
	case StageFilenamesChecked:
		return StageFilenamesCheckedStr
	case StageMetadataPrechecked:
		return StageMetadataPrecheckedStr
	case StageMetadataChecked:
		return StageMetadataCheckedStr
	case StageKeywordsSet:
		return StageKeywordsSetStr
	case StageParametersAdded:
		return StageParametersAddedStr
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// Redacted returns a safe representation of the Stage for production
// logging.
func (s Stage) Redacted() string {
	return s.String()
}

// TypeName returns the name of this type for error messages and debugging.
func (s Stage) TypeName() string {
	return "Stage"
}

// IsZero reports whether this Stage is the zero value (the first stage).
func (s Stage) IsZero() bool {
	return s == StageFilenamesChecked
}

// Validate checks whether this Stage is a known pipeline stage.
func (s Stage) Validate() error {
	if s >= StageCount {
		return &hlsperrors.MarshalError{Type: "Stage", Value: int(s)}
	}
	return nil
}

// MarshalJSON serializes this Stage as its persisted name.
func (s Stage) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", s.TypeName(), err)
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a Stage from its persisted name.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("cannot unmarshal JSON into %s: %w", s.TypeName(), err)
	}

	parsed, err := ParseStage(str)
	if err != nil {
		return fmt.Errorf("cannot parse %s from JSON: %w", s.TypeName(), err)
	}

	*s = parsed
	return nil
}

// MarshalYAML serializes this Stage as its persisted name.
func (s Stage) MarshalYAML() (interface{}, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", s.TypeName(), err)
	}
	return s.String(), nil
}

// UnmarshalYAML deserializes a Stage from its persisted name.
func (s *Stage) UnmarshalYAML(node *yaml.Node) error {
	var str string
	if err := node.Decode(&str); err != nil {
		return fmt.Errorf("cannot unmarshal YAML into %s: %w", s.TypeName(), err)
	}

	parsed, err := ParseStage(str)
	if err != nil {
		return fmt.Errorf("cannot parse %s from YAML: %w", s.TypeName(), err)
	}

	*s = parsed
	return nil
}

// Compile-time check that Stage implements model.Model.
var _ model.Model = (*Stage)(nil)

// StageSet holds the completion flags of the five pipeline stages.
//
// The flags are monotonic in the forward direction: marking stage k
// complete forces every stage before k complete as well, so the set can
// never record a gap. Clearing a stage affects no other stage; there is no
// automatic backward propagation.
//
// The zero value has every stage incomplete.
type StageSet struct {
	flags [StageCount]bool
}

// Compile-time checks for the model contracts.
var (
	_ model.Model                = (*StageSet)(nil)
	_ model.Comparable[StageSet] = StageSet{}
)

// Mark sets the completion flag of the given stage. Marking a stage
// complete forces all earlier stages complete; marking it incomplete
// leaves every other stage untouched.
func (ss *StageSet) Mark(s Stage, complete bool) error {
	if err := s.Validate(); err != nil {
		return err
	}

	ss.flags[s] = complete
	if complete {
		for i := Stage(0); i < s; i++ {
			ss.flags[i] = true
		}
	}

	return nil
}

// Toggle flips the completion flag of the given stage, applying the same
// forward propagation as Mark when the result is complete.
func (ss *StageSet) Toggle(s Stage) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return ss.Mark(s, !ss.flags[s])
}

// Done reports whether the given stage is complete. Unknown stages report
// false.
func (ss StageSet) Done(s Stage) bool {
	if s >= StageCount {
		return false
	}
	return ss.flags[s]
}

// Ready reports whether every stage is complete, the terminal
// ingestion-ready state.
func (ss StageSet) Ready() bool {
	for _, done := range ss.flags {
		if !done {
			return false
		}
	}
	return true
}

// String returns the human-readable representation of the StageSet.
func (ss StageSet) String() string {
	return fmt.Sprintf("StageSet%v", ss.flags)
}

// Redacted returns a safe representation of the StageSet for production
// logging.
func (ss StageSet) Redacted() string {
	return ss.String()
}

// TypeName returns the name of this type for error messages and debugging.
func (ss StageSet) TypeName() string {
	return "StageSet"
}

// IsZero reports whether every stage is incomplete.
func (ss StageSet) IsZero() bool {
	return ss == StageSet{}
}

// Equal reports whether this StageSet equals another StageSet.
func (ss StageSet) Equal(other StageSet) bool {
	return ss == other
}

// Validate implements the model.Validatable contract. Every flag
// combination is representable: forward propagation happens when a stage
// is marked, and clearing a stage deliberately leaves later stages alone,
// so a gap is a legal (if unusual) recorded state.
func (ss StageSet) Validate() error {
	return nil
}

func (ss StageSet) asMap() map[string]bool {
	out := make(map[string]bool, StageCount)
	for _, s := range Stages() {
		out[s.String()] = ss.flags[s]
	}
	return out
}

func (ss *StageSet) fromMap(raw map[string]bool) error {
	var next StageSet
	for name, done := range raw {
		s, err := ParseStage(name)
		if err != nil {
			return err
		}
		next.flags[s] = done
	}

	*ss = next
	return nil
}

// MarshalJSON serializes the StageSet as a stage-name to flag mapping.
func (ss StageSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ss.asMap())
}

// UnmarshalJSON deserializes the StageSet from a stage-name to flag
// mapping. Unknown stage names are rejected.
func (ss *StageSet) UnmarshalJSON(data []byte) error {
	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("cannot unmarshal JSON into %s: %w", ss.TypeName(), err)
	}
	return ss.fromMap(raw)
}

// MarshalYAML serializes the StageSet as a stage-name to flag mapping.
// Stage names carry a numeric prefix, so the alphabetized output reads in
// pipeline order.
func (ss StageSet) MarshalYAML() (interface{}, error) {
	return ss.asMap(), nil
}

// UnmarshalYAML deserializes the StageSet from a stage-name to flag
// mapping. Unknown stage names are rejected.
func (ss *StageSet) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]bool
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("cannot unmarshal YAML into %s: %w", ss.TypeName(), err)
	}
	return ss.fromMap(raw)
}
