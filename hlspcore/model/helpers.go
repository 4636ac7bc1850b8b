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

package model

import (
	"encoding/json"
	"fmt"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ValidateAll validates a slice of models and returns all validation errors
// encountered, not just the first one.
//
// Each model's Validate method is invoked in order. When a model fails
// validation, the error is wrapped with the model's position in the slice
// and its type name, and appended to a combined error via multierr. The
// entire slice is always processed, so a caller validating a loaded
// document sees every malformed record at once rather than fixing them one
// reload at a time.
//
// Empty slices are considered valid and return nil.
func ValidateAll[T Model](models []T) error {
	var combined error

	for i, m := range models {
		if err := m.Validate(); err != nil {
			combined = multierr.Append(combined,
				fmt.Errorf("model[%d] (%s): %w", i, m.TypeName(), err))
		}
	}

	return combined
}

// FilterZero returns a new slice containing only non-zero models.
//
// The returned slice is always a new allocation and never shares backing
// storage with the input. If all models in the input are zero, or the input
// is empty or nil, the function returns an empty non-nil slice.
//
// Callers SHOULD use FilterZero before exporting collections so that empty
// placeholder records never reach a persisted document or a CAOM template.
func FilterZero[T Model](models []T) []T {
	result := make([]T, 0, len(models))

	for _, m := range models {
		if !m.IsZero() {
			result = append(result, m)
		}
	}

	return result
}

// MustValidate validates a model and panics if validation fails.
//
// This is intended for test setup and package initialization code where an
// invalid model represents a programming error rather than a recoverable
// runtime condition. Callers MUST NOT use MustValidate on data loaded from
// disk or supplied by an operator; use Validate and handle the error.
func MustValidate[T Model](m T) T {
	if err := m.Validate(); err != nil {
		panic(fmt.Sprintf("model validation failed for %s: %v", m.TypeName(), err))
	}
	return m
}

// ToJSON converts a model to JSON bytes after validating it.
//
// If validation fails, ToJSON returns an error naming the model type and no
// marshaling is attempted, so invalid metadata never reaches the encoder.
func ToJSON[T Model](m T) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", m.TypeName(), err)
	}
	return json.Marshal(m)
}

// ToYAML converts a model to YAML bytes after validating it.
//
// This is the serialization path used when writing model values into the
// persisted .hlsp document. If validation fails, ToYAML returns an error
// naming the model type and no marshaling is attempted.
func ToYAML[T Model](m T) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("cannot marshal invalid %s: %w", m.TypeName(), err)
	}
	return yaml.Marshal(m)
}

// FromJSON parses JSON bytes into a model and validates the result.
//
// If FromJSON returns an error, the model variable's state is undefined and
// MUST NOT be used.
func FromJSON[T Model](data []byte, m *T) error {
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("cannot unmarshal JSON: %w", err)
	}
	if err := (*m).Validate(); err != nil {
		return fmt.Errorf("unmarshaled model is invalid: %w", err)
	}
	return nil
}

// FromYAML parses YAML bytes into a model and validates the result.
//
// This is the deserialization path used when reading model values out of a
// persisted .hlsp document or a keyword template. If FromYAML returns an
// error, the model variable's state is undefined and MUST NOT be used.
func FromYAML[T Model](data []byte, m *T) error {
	if err := yaml.Unmarshal(data, m); err != nil {
		return fmt.Errorf("cannot unmarshal YAML: %w", err)
	}
	if err := (*m).Validate(); err != nil {
		return fmt.Errorf("unmarshaled model is invalid: %w", err)
	}
	return nil
}

// Clone creates a deep copy of a model via a JSON round-trip.
//
// The round-trip guarantees independence between the original and the copy,
// including nested slices and maps, at the cost of encoding overhead. Types
// on hot paths SHOULD implement Cloneable with hand-written copy logic
// instead; KeywordRecord does exactly that for the standard-set snapshot
// taken during derivation.
func Clone[T Model](m T) (T, error) {
	var zero T

	data, err := json.Marshal(m)
	if err != nil {
		return zero, fmt.Errorf("clone marshal failed: %w", err)
	}

	var clone T
	if err := json.Unmarshal(data, &clone); err != nil {
		return zero, fmt.Errorf("clone unmarshal failed: %w", err)
	}

	return clone, nil
}

// Equal compares two models for equality by comparing their JSON
// representations byte-for-byte.
//
// If either value fails to marshal, Equal returns false rather than
// mistaking an encoding error for inequality. Types that need precise or
// frequent comparison SHOULD implement Comparable with field-wise logic;
// the reconciliation diff does so rather than relying on this helper.
func Equal[T Model](a, b T) bool {
	dataA, errA := json.Marshal(a)
	dataB, errB := json.Marshal(b)

	if errA != nil || errB != nil {
		return false
	}

	return string(dataA) == string(dataB)
}
