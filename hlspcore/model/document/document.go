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

// Package document implements the MetadataDocument orchestrating HLSP
// ingestion metadata across pipeline stages and process restarts.
//
// A Document owns the pipeline-stage completion flags, the file-type
// registry, the standard keyword set derived from templates, the working
// keyword set carrying operator edits, and the named parameter sections.
// It persists itself as a YAML .hlsp file and exports a CAOM-consumable
// XML template.
//
// Documents are single-threaded by design. Each pipeline invocation loads
// a document, mutates it, and saves it; the filesystem is the only shared
// resource. The package provides no file locking: two processes writing
// the same document path race, and serializing them is an operational
// concern outside this library.
package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blang/semver/v4"
	"go.uber.org/multierr"

	hlsperrors "github.com/spacetelescope/MAST-HLSP/hlspcore/errors"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/logging"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/filetype"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/keyword"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/param"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/template"
)

// FormatVersion is the .hlsp document format revision this library writes.
// Loading rejects documents whose recorded major revision is newer than
// this one.
const FormatVersion = "1.0.0"

// DefaultName is the placeholder product name of a freshly constructed
// document.
const DefaultName = "blank"

// Pipeline-wide static-values section applied to every product during
// derivation, regardless of standards in play.
const staticSectionAll = "hlsp"

// Provenance parameters receiving computed defaults when their stored
// value carries the placeholder sentinel.
const (
	provenanceSection  = "provenance"
	provenanceNameKey  = "name"
	provenanceRefKey   = "reference"
	referenceURLPrefix = "https://archive.stsci.edu/hlsp"
)

// Config carries the explicit construction-time configuration of a
// Document: the pipeline root directory anchor, the template store, and
// the logger. RootDir is required for path derivation; it is never
// discovered by scanning the environment.
type Config struct {
	// RootDir is the pipeline root directory under which the default
	// document path and the per-stage output paths are derived.
	RootDir string

	// Templates resolves keyword templates and static values. When nil,
	// a store rooted at RootDir is used.
	Templates *template.Store

	// Logger receives structured events from load, save, derivation and
	// export. Defaults to a no-op logger.
	Logger *logging.Logger
}

// FilePaths is the data file-path configuration of a document: where the
// product's data files are read from and where the exported template is
// written.
type FilePaths struct {
	InputDir string `json:"InputDir" yaml:"InputDir"`
	Output   string `json:"Output" yaml:"Output"`
}

// Document tracks the metadata of one High-Level Science Product as it
// moves through the five-stage ingestion pipeline.
//
// The zero value is not usable; construct with New or Load.
type Document struct {
	name      string
	format    semver.Version
	stages    StageSet
	filePaths FilePaths
	fileTypes filetype.Registry
	params    param.Sections

	// standard holds the keywords derived mechanically from templates;
	// working holds the live state including operator edits; updates is
	// the persisted diff of working relative to standard.
	standard keyword.Set
	working  keyword.Set
	updates  keyword.Set

	paths stagePaths
	store *template.Store
	log   logging.Logger
}

// New constructs an empty document with the placeholder name. The stage
// paths are derived immediately so the document can be saved before it is
// named.
func New(cfg Config) *Document {
	log := logging.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	store := cfg.Templates
	if store == nil {
		store = template.NewStore(cfg.RootDir)
	}

	d := &Document{
		name:   DefaultName,
		format: semver.MustParse(FormatVersion),
		store:  store,
		log:    log.WithComponent("document"),
	}
	d.paths = newStagePaths(cfg.RootDir, d.name)

	return d
}

// NewNamed constructs a document pre-seeded with a product name, deriving
// the canonical per-stage paths for it.
func NewNamed(name string, cfg Config) *Document {
	d := New(cfg)
	d.SetName(name)
	return d
}

// Load constructs a document and immediately loads the persisted .hlsp
// file at path into it. On a malformed document the returned error is a
// DocumentFormatError and the returned document is a usable empty one.
func Load(path string, cfg Config) (*Document, error) {
	d := New(cfg)
	if err := d.Load(path); err != nil {
		return d, err
	}
	return d, nil
}

// Name returns the product name.
func (d *Document) Name() string {
	return d.name
}

// SetName renames the product and recomputes every derived stage path.
func (d *Document) SetName(name string) {
	d.name = name
	d.paths = newStagePaths(d.paths.root, name)
}

// DisplayName returns the uppercased form of the product name used for
// display defaults such as the provenance name.
func (d *Document) DisplayName() string {
	return strings.ToUpper(d.name)
}

// Format returns the document format revision, either the library's own
// (for a fresh document) or the one recorded in the loaded file.
func (d *Document) Format() semver.Version {
	return d.format
}

// Stages returns the pipeline stage completion flags.
func (d *Document) Stages() StageSet {
	return d.stages
}

// MarkStage sets a stage completion flag with forward propagation: see
// StageSet.Mark.
func (d *Document) MarkStage(s Stage, complete bool) error {
	return d.stages.Mark(s, complete)
}

// ToggleStage flips a stage completion flag: see StageSet.Toggle.
func (d *Document) ToggleStage(s Stage) error {
	return d.stages.Toggle(s)
}

// StageDone reports whether the given stage is complete.
func (d *Document) StageDone(s Stage) bool {
	return d.stages.Done(s)
}

// IngestReady reports whether every pipeline stage is complete.
func (d *Document) IngestReady() bool {
	return d.stages.Ready()
}

// FileTypes returns a copy of the registered file-type entries in
// insertion order.
func (d *Document) FileTypes() []filetype.Entry {
	return d.fileTypes.Entries()
}

// AddFileType registers a file type. Re-registering an existing type tag
// is a no-op; an invalid entry is rejected.
func (d *Document) AddFileType(e filetype.Entry) error {
	return d.fileTypes.Add(e)
}

// RemoveFileType deletes a file type by tag and reports whether an entry
// was removed.
func (d *Document) RemoveFileType(fileType string) bool {
	return d.fileTypes.Remove(fileType)
}

// FindFileType returns the registered entry for a type tag, if present.
func (d *Document) FindFileType(fileType string) (filetype.Entry, bool) {
	return d.fileTypes.Find(fileType)
}

// CheckExtensions returns the type tags participating in the metadata
// validation stages.
func (d *Document) CheckExtensions() []string {
	return d.fileTypes.CheckExtensions()
}

// Standards returns the deduplicated template names derived from the
// registered file types.
func (d *Document) Standards() []string {
	return d.fileTypes.Standards()
}

// Keywords returns a copy of the working keyword records in insertion
// order: the merged view of template-derived standards and operator
// edits.
func (d *Document) Keywords() []keyword.Record {
	return d.working.Records()
}

// KeywordUpdates returns a copy of the most recently computed update
// records.
func (d *Document) KeywordUpdates() []keyword.Record {
	return d.updates.Records()
}

// AddKeyword adds a record to the working keyword set with the usual
// merge-or-append semantics. When standard is true, a copy is also
// snapshotted into the standard set, marking the record as
// template-derived for later diffing.
func (d *Document) AddKeyword(r keyword.Record, standard bool) error {
	if standard {
		snap := r.Clone()
		snap.Source = keyword.SourceStandard
		if err := d.standard.Add(snap); err != nil {
			return err
		}
	}
	return d.working.Add(r)
}

// UpdateKeyword merges an operator edit into the working record with the
// given FITS keyword identifier, creating an override record if the
// identifier is new. It reports whether anything changed.
func (d *Document) UpdateKeyword(fitsKeyword string, f keyword.Fields) (bool, error) {
	return d.working.Apply(fitsKeyword, f, keyword.SourceOverride)
}

// AddKeywordUpdate records an operator keyword edit as a whole record:
// it is merged into the working set and staged in the update list so the
// edit is visible before the next recompute. Save recomputes the update
// list from scratch, so a staged record that restates standard values
// does not persist.
func (d *Document) AddKeywordUpdate(r keyword.Record) error {
	if err := d.working.Add(r); err != nil {
		return err
	}
	return d.updates.Add(r)
}

// DeriveStandardKeywords populates the standard and working keyword sets
// from the templates selected by the registered file types, and registers
// the matching static-value parameters.
//
// For each deduplicated (product-type, standard) pair, every template
// entry is added with merge semantics, so repeated derivation never
// duplicates a keyword. The pipeline-wide static section always applies;
// the product-type and instrument sections are optional and silently
// skipped when the table does not carry them. An empty registry makes
// derivation a no-op.
func (d *Document) DeriveStandardKeywords() error {
	standards := d.fileTypes.Standards()
	if len(standards) == 0 {
		return nil
	}

	var statics map[string]template.StaticSection

	for _, name := range standards {
		keywords, err := d.store.Keywords(name)
		if err != nil {
			return err
		}

		// Template files decode to maps; iterate sorted so derivation
		// order is stable across runs.
		ids := make([]string, 0, len(keywords))
		for id := range keywords {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			r, err := keyword.NewRecord(id, keywords[id], keyword.SourceStandard)
			if err != nil {
				return fmt.Errorf("template %s: %w", name, err)
			}
			if err := d.AddKeyword(r, true); err != nil {
				return fmt.Errorf("template %s: %w", name, err)
			}
		}

		if statics == nil {
			statics, err = d.store.StaticValues()
			if err != nil {
				return err
			}
		}

		d.applyStaticSection(statics[staticSectionAll])

		// A standard name is "<product-type>_<instrument>"; each half
		// selects an optional static section.
		if productType, instrument, ok := strings.Cut(name, "_"); ok {
			d.applyStaticSection(statics[productType])
			d.applyStaticSection(statics[instrument])
		}
	}

	d.log.Debug().
		Str("hlsp", d.name).
		Int("standards", len(standards)).
		Int("keywords", d.standard.Len()).
		Msg("derived standard keywords")

	return nil
}

func (d *Document) applyStaticSection(section template.StaticSection) {
	for _, parent := range sortedKeys(section) {
		values := section[parent]
		for _, name := range sortedKeys(values) {
			d.AddParameter(name, parent, values[name])
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResetKeywords empties the standard and working keyword sets and derives
// the standard keywords afresh from the current file-type registry. The
// update set is left alone so a subsequent ApplyUpdates can replay
// operator edits onto the fresh derivation.
func (d *Document) ResetKeywords() error {
	d.standard.Clear()
	d.working.Clear()
	return d.DeriveStandardKeywords()
}

// AddParameter stores a named parameter under a template section,
// substituting computed defaults for placeholder values: a provenance
// "name" placeholder becomes the uppercased product name, a provenance
// "reference" placeholder becomes the archive URL built from the
// lowercased product name. Non-placeholder values are stored as given.
func (d *Document) AddParameter(name, section string, v param.Value) {
	if section == provenanceSection && v.HasPlaceholder() {
		switch name {
		case provenanceNameKey:
			v = param.StringValue(d.DisplayName())
		case provenanceRefKey:
			v = param.StringValue(referenceURLPrefix + "/" + strings.ToLower(d.name))
		}
	}

	d.params.Set(section, name, v)
}

// Parameter returns the stored value for a section and name, if any.
func (d *Document) Parameter(section, name string) (param.Value, bool) {
	return d.params.Get(section, name)
}

// ParameterSections returns the section names currently stored, sorted.
func (d *Document) ParameterSections() []string {
	return d.params.SectionNames()
}

// ComputeUpdates recomputes the update set: the asymmetric diff of the
// working keywords relative to the freshly derived standard keywords. The
// result captures every operator divergence (additions and field edits)
// and is what Save persists in place of the full standard set.
func (d *Document) ComputeUpdates() {
	d.updates = *d.working.Diff(&d.standard)
}

// ApplyUpdates replays the update records onto the working set with merge
// semantics. This is the inverse of ComputeUpdates used on reload: after
// file types are registered and the standard keywords re-derived, the
// stored deltas reconstruct the prior working state exactly.
//
// Applying updates computed from an unchanged working set is a no-op.
func (d *Document) ApplyUpdates() error {
	for _, r := range d.updates.Records() {
		if _, err := d.working.Apply(r.FitsKeyword, r.NonZeroFields(), r.Source); err != nil {
			return err
		}
	}
	return nil
}

// SetFilePaths updates the data file-path configuration. Empty arguments
// leave the corresponding setting untouched.
func (d *Document) SetFilePaths(inputDir, output string) {
	if inputDir != "" {
		d.filePaths.InputDir = inputDir
	}
	if output != "" {
		d.filePaths.Output = output
	}
}

// FilePathConfig returns the data file-path configuration.
func (d *Document) FilePathConfig() FilePaths {
	return d.filePaths
}

// InputDir returns the configured data input directory. Requesting it
// before it has been set fails with a PathConfigError rather than
// returning an empty path.
func (d *Document) InputDir() (string, error) {
	if d.filePaths.InputDir == "" {
		return "", &hlsperrors.PathConfigError{Name: d.name, Key: "InputDir"}
	}
	return d.filePaths.InputDir, nil
}

// DefaultPath returns the document's default persisted location under the
// pipeline root.
func (d *Document) DefaultPath() string {
	return d.paths.defaultPath
}

// OutputPathFor returns the persisted-document path for a pipeline-stage
// caller hint (a stage program filename). An empty or unknown hint
// selects the default path.
func (d *Document) OutputPathFor(callerHint string) string {
	return d.paths.output(callerHint)
}

// FindLogFile returns the expected log-file path of a pipeline-stage
// program. The path is derived, not checked for existence; existence is
// the caller's concern.
func (d *Document) FindLogFile(callerHint string) string {
	return d.paths.logFile(callerHint)
}

// Validate aggregates the validation of every owned collection, reporting
// all failures at once.
func (d *Document) Validate() error {
	return multierr.Combine(
		d.fileTypes.Validate(),
		d.standard.Validate(),
		d.working.Validate(),
		d.updates.Validate(),
		d.params.Validate(),
	)
}

// String returns a short human-readable summary of the document.
func (d *Document) String() string {
	return fmt.Sprintf("Document{Name:%s, FileTypes:%d, Keywords:%d, Ready:%t}",
		d.name, d.fileTypes.Len(), d.working.Len(), d.IngestReady())
}
