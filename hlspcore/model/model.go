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

// Package model defines the core contracts that all hlspcore domain model
// types MUST implement to ensure consistency, type safety, and proper
// behavior across the metadata pipeline.
//
// Every domain type representing an HLSP metadata entity (KeywordRecord,
// FileTypeEntry, Stage, parameter values, and the document itself) SHOULD
// implement the Model interface or its constituent parts (Validatable,
// Serializable, Loggable, Identifiable, ZeroCheckable). These interfaces
// establish a common contract for validation, serialization, logging, and
// identity that enables generic operations and guarantees safety at compile
// time.
//
// Validation ensures that invalid metadata cannot be persisted to a .hlsp
// document or exported to a CAOM template. Serialization provides
// round-trip guarantees for the YAML-persisted document format and for
// JSON payloads. Loggable provides stable string forms for structured
// logging. Identifiable supplies canonical type names for error messages.
// ZeroCheckable supports optional-field detection during template merging.
//
// Unless explicitly documented otherwise, implementations are not
// thread-safe for concurrent mutation. The pipeline is single-threaded by
// design: each invocation loads a document, mutates it, and persists it.
// Callers MUST synchronize any concurrent writes to mutable instances.
package model

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Model is the root interface combining all fundamental contracts required
// for hlspcore domain types. Any type implementing Model gains automatic
// support for validation, serialization to JSON and YAML, stable logging
// output, type identification, and zero-value detection.
//
// Implementations MUST satisfy all embedded interfaces. Model instances are
// generally treated as value types; methods defined on Model SHOULD NOT
// mutate the receiver unless explicitly documented (KeywordRecord.Update is
// the notable documented exception). Concurrent reads are safe; concurrent
// writes require external synchronization.
type Model interface {
	Validatable
	Serializable
	Loggable
	Identifiable
	ZeroCheckable
}

// Validatable defines the contract for types that validate their own state
// to ensure data integrity.
//
// Validate MUST check all required fields, verify cross-field consistency,
// recursively validate nested objects, and return nil if and only if the
// instance is fully valid. Error messages MUST name the offending field
// ("KeywordRecord.FitsKeyword must not be empty"), not just report a
// generic failure.
//
// Validate MUST be fast, deterministic, and idempotent. It MUST NOT mutate
// the receiver, perform I/O, or depend on external mutable state. Callers
// SHOULD invoke Validate at critical boundaries: after unmarshaling a
// persisted document, after constructing records from template entries, and
// before persisting or exporting.
type Validatable interface {
	// Validate checks that the instance satisfies all invariants and is
	// ready for use. It returns nil if the instance is valid, or a
	// descriptive error explaining what is wrong.
	//
	// This method MUST NOT mutate the receiver and MUST NOT have side
	// effects.
	Validate() error
}

// Serializable defines the contract for types that can be serialized to and
// deserialized from JSON and YAML formats. The persisted .hlsp document is
// YAML; JSON support exists for API payloads and the generic Clone / Equal
// helpers.
//
// Implementations MUST call Validate before marshaling so that only valid
// instances are serialized, and after unmarshaling so that malformed
// persisted data is rejected at the boundary. A value serialized to either
// format and then deserialized MUST equal the original value.
//
// Implementations SHOULD use the "type alias" pattern to avoid infinite
// recursion: define a local alias of the model type, cast the receiver, and
// delegate to the standard marshal or unmarshal machinery.
type Serializable interface {
	json.Marshaler
	json.Unmarshaler
	yaml.Marshaler
	yaml.Unmarshaler
}

// Loggable defines the contract for types that provide string
// representations for logging and debugging.
//
// Redacted returns the representation used in production logs. HLSP
// metadata carries no credentials or PII, so for most hlspcore types
// Redacted and String agree; the distinction is kept so that call sites
// choose explicitly, and so that any future sensitive field has an obvious
// place to be masked.
//
// Both methods MUST be fast, MUST NOT mutate the receiver, and MUST be safe
// to call concurrently.
type Loggable interface {
	// Redacted returns a string representation suitable for production
	// logging.
	Redacted() string

	// String returns a human-readable representation of the instance,
	// primarily for development debugging and test assertions.
	String() string
}

// Identifiable defines the contract for types that can identify themselves
// by a canonical type name.
//
// The name MUST be constant for a given type, unique within hlspcore, in
// CamelCase, and without a package prefix (for example, "KeywordRecord",
// "Stage", "FileTypeEntry"). Type names appear in error messages and
// structured log fields.
//
// TypeName MUST be fast, SHOULD return a string constant, and MUST NOT
// have side effects.
type Identifiable interface {
	// TypeName returns the canonical name of this model type.
	TypeName() string
}

// ZeroCheckable defines the contract for types that can report whether they
// are in a zero or empty state.
//
// IsZero MUST return true if and only if the instance is semantically
// empty: no meaningful data is present and the instance would fail
// validation. The merge machinery uses IsZero to decide whether a supplied
// field participates in a structural update, and FilterZero uses it to
// clean collections before export.
//
// IsZero MUST be fast, deterministic, and free of side effects.
type ZeroCheckable interface {
	// IsZero reports whether this instance contains no meaningful data.
	IsZero() bool
}

// Comparable defines the contract for types that can be compared for
// equality. This interface is optional but recommended for value types that
// require equality testing in reconciliation logic or tests.
//
// Equal MUST be reflexive, symmetric, transitive, and consistent. It SHOULD
// compare all semantically significant fields and ignore internal or cached
// state. Equal MUST NOT mutate either operand.
type Comparable[T any] interface {
	// Equal reports whether this instance is equal to another instance of
	// the same type.
	Equal(other T) bool
}

// Cloneable defines the contract for types that can create deep copies of
// themselves. This interface is optional but recommended for mutable types.
//
// Clone MUST create a deep copy: the returned instance shares no references
// with the original, so mutating either does not affect the other. The
// clone MUST be valid if the original is valid, and cloning a clone MUST
// produce an instance equal to the first clone.
type Cloneable[T any] interface {
	// Clone creates a deep copy of this instance.
	Clone() T
}
