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

// Package errors provides reusable error types for the hlspcore model
// packages.
//
// The metadata pipeline surfaces every failure synchronously to the caller:
// there are no retries and nothing is silently downgraded. The types in this
// package are intentionally simple value carriers with stable message
// formats, designed to be easy to construct from parsing / marshaling /
// validation code, easy to recognize via errors.As, and easy for operators
// to understand when surfaced in logs.
//
// # Error Types
//
//   - ParseError
//     Returned when parsing a string into an enum-like type (Stage,
//     ValueKind) fails.
//
//   - MarshalError
//     Returned when marshaling an invalid enum-like value. A MarshalError
//     almost always indicates a programming error such as an unvalidated
//     zero value.
//
//   - UnmarshalError
//     Returned when unmarshaling data into a typed value fails due to
//     invalid input, parse errors or constraint violations.
//
//   - ValidationError
//     Returned by Validate() methods to report constraint violations,
//     missing required fields, or invalid field values.
//
//   - DocumentFormatError
//     Returned when a persisted .hlsp document cannot be mapped onto the
//     known document schema. The load that produced it has been abandoned;
//     the receiver is reset to an empty, usable document.
//
//   - PathConfigError
//     Returned when a path the caller requested (for example the data
//     input directory) has never been configured on the document.
package errors

import "strconv"

// ParseError is returned when parsing a string into a strongly typed
// enum-like value fails.
//
// Type identifies the logical type being parsed (for example, "Stage" or
// "ValueKind"), and Value contains the exact string that could not be
// interpreted.
type ParseError struct {
	// Type is the logical name of the type being parsed.
	Type string

	// Value is the invalid textual representation that was provided.
	Value string
}

// Error implements the error interface for ParseError.
//
// The message format is stable:
//
//	"hlsp: invalid {Type} value: {Value}"
func (e *ParseError) Error() string {
	return "hlsp: invalid " + e.Type + " value: " + e.Value
}

// MarshalError is returned when marshaling a typed value fails because it is
// outside the set of valid constants.
//
// Type identifies the logical type being marshaled, and Value contains the
// underlying numeric value that was deemed invalid. This error acts as a
// guardrail: it keeps invalid enum-like values out of persisted .hlsp
// documents and exported templates.
type MarshalError struct {
	// Type is the logical name of the type being marshaled.
	Type string

	// Value is the underlying numeric representation that does not
	// correspond to a known constant.
	Value int
}

// Error implements the error interface for MarshalError.
//
// The message format is stable:
//
//	"hlsp: cannot marshal invalid {Type} value: {Value}"
func (e *MarshalError) Error() string {
	return "hlsp: cannot marshal invalid " + e.Type + " value: " + strconv.Itoa(e.Value)
}

// UnmarshalError is returned when unmarshaling data into a typed value fails.
//
// Type identifies the logical type being populated, Data contains the
// original raw payload (typically a YAML or JSON fragment), and Reason
// provides a human-readable description of what went wrong.
type UnmarshalError struct {
	// Type is the logical name of the type being unmarshaled into.
	Type string

	// Data is the raw input that failed to unmarshal. Callers MAY choose
	// to log or redact this field depending on size considerations.
	Data []byte

	// Reason is a short, human-readable explanation of the failure.
	Reason string
}

// Error implements the error interface for UnmarshalError.
//
// The message format is stable:
//
//	"hlsp: cannot unmarshal {Type}: {Reason}"
//
// Data is intentionally not included in the formatted message; callers can
// log it separately when appropriate.
func (e *UnmarshalError) Error() string {
	return "hlsp: cannot unmarshal " + e.Type + ": " + e.Reason
}

// ValidationError is returned when validation of a model type fails.
//
// Type identifies the logical name of the type being validated (for example,
// "KeywordRecord" or "FileTypeEntry"), Field optionally identifies which
// field failed, Reason explains the failure, and Value optionally contains
// the problematic value.
type ValidationError struct {
	// Type is the logical name of the type being validated.
	Type string

	// Field is the name of the field that failed validation.
	// May be empty if the error applies to the entire type.
	Field string

	// Reason is a short, human-readable explanation of why validation
	// failed.
	Reason string

	// Value optionally contains the invalid value. May be nil.
	Value any
}

// Error implements the error interface for ValidationError.
//
// The message format is stable:
//
//	"hlsp: invalid {Type}.{Field}: {Reason}" (when Field is specified)
//	"hlsp: invalid {Type}: {Reason}" (when Field is empty)
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "hlsp: invalid " + e.Type + "." + e.Field + ": " + e.Reason
	}
	return "hlsp: invalid " + e.Type + ": " + e.Reason
}

// DocumentFormatError is returned when the contents of a persisted .hlsp
// document do not map onto the known document schema: an unknown top-level
// key, a section whose shape cannot be decoded, or a format revision newer
// than this library understands.
//
// A DocumentFormatError is fatal for the load that produced it. The
// in-progress load is abandoned and the receiving document is reset to a
// fresh empty state so the caller still holds something usable.
type DocumentFormatError struct {
	// Path is the file the document was loaded from. May be empty when
	// the document was decoded from an in-memory payload.
	Path string

	// Key is the document key that could not be processed. May be empty
	// when the failure applies to the document as a whole.
	Key string

	// Reason is a short, human-readable explanation of the failure.
	Reason string
}

// Error implements the error interface for DocumentFormatError.
//
// The message format is stable:
//
//	"hlsp: malformed document {Path}: key {Key}: {Reason}"
//
// with the Path and Key segments omitted when empty.
func (e *DocumentFormatError) Error() string {
	msg := "hlsp: malformed document"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Key != "" {
		msg += ": key " + e.Key
	}
	return msg + ": " + e.Reason
}

// PathConfigError is returned when a caller requests a path that has never
// been configured, such as the data input directory of a document whose
// FilePaths section was never populated. Returning a descriptive error here
// keeps "unset" from being confused with a legitimately empty path.
type PathConfigError struct {
	// Name is the HLSP product the request was made against.
	Name string

	// Key is the missing path configuration entry (for example "InputDir").
	Key string
}

// Error implements the error interface for PathConfigError.
//
// The message format is stable:
//
//	"hlsp: document {Name} is missing path configuration {Key}"
func (e *PathConfigError) Error() string {
	return "hlsp: document " + e.Name + " is missing path configuration " + e.Key
}
