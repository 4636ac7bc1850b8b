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
	"fmt"
	"os"
	"path/filepath"

	"github.com/blang/semver/v4"
	"gopkg.in/yaml.v3"

	hlsperrors "github.com/spacetelescope/MAST-HLSP/hlspcore/errors"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/filetype"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/keyword"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/param"
)

// Top-level keys of a persisted .hlsp document. Every key a file may carry
// is enumerated here; Load rejects anything else.
const (
	keyFormatVersion    = "FormatVersion"
	keyFileTypes        = "FileTypes"
	keyHlspName         = "HlspName"
	keyIngest           = "Ingest"
	keyFilePaths        = "FilePaths"
	keyKeywordUpdates   = "KeywordUpdates"
	keyUniqueParameters = "UniqueParameters"
)

// fileFormat is the persisted shape of a document. Keyword state is stored
// as the update diff only; the standard set is reconstructed from templates
// on load and the diff replayed on top.
type fileFormat struct {
	FormatVersion    string             `yaml:"FormatVersion"`
	FileTypes        *filetype.Registry `yaml:"FileTypes"`
	HlspName         string             `yaml:"HlspName"`
	Ingest           StageSet           `yaml:"Ingest"`
	FilePaths        FilePaths          `yaml:"FilePaths"`
	KeywordUpdates   *keyword.Set       `yaml:"KeywordUpdates"`
	UniqueParameters *param.Sections    `yaml:"UniqueParameters"`
}

// Save computes the keyword update diff and writes the document to the
// stage path selected by the caller hint (see OutputPathFor), creating
// parent directories as needed. It returns the path written.
func (d *Document) Save(callerHint string) (string, error) {
	path := d.paths.output(callerHint)
	if err := d.SaveTo(path); err != nil {
		return "", err
	}
	return path, nil
}

// SaveTo computes the keyword update diff and writes the document as YAML
// to the given path, creating parent directories as needed. The document
// is validated first; an invalid document is never written.
func (d *Document) SaveTo(path string) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("cannot save invalid document: %w", err)
	}

	d.ComputeUpdates()

	out := fileFormat{
		FormatVersion:    d.format.String(),
		FileTypes:        &d.fileTypes,
		HlspName:         d.name,
		Ingest:           d.stages,
		FilePaths:        d.filePaths,
		KeywordUpdates:   &d.updates,
		UniqueParameters: &d.params,
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("cannot encode document %s: %w", d.name, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create document directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write document: %w", err)
	}

	d.log.Info().
		Str("hlsp", d.name).
		Str("path", path).
		Int("updates", d.updates.Len()).
		Msg("saved document")

	return nil
}

// Load reads a persisted .hlsp file into the document, replacing its
// current state.
//
// Sections decode in a fixed order regardless of their order in the file:
// format revision first, then the product name, file paths and file types,
// then the standard keywords are re-derived from the file types' templates,
// and finally the stored keyword updates are replayed on top of them. A
// file carrying an unknown top-level key, or a format revision newer than
// this library writes, is rejected with a DocumentFormatError and the
// document is reset to a fresh empty state.
func (d *Document) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read document: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		d.reset()
		return &hlsperrors.DocumentFormatError{Path: path, Reason: err.Error()}
	}

	sections, err := mappingNodes(&root)
	if err != nil {
		d.reset()
		return &hlsperrors.DocumentFormatError{Path: path, Reason: err.Error()}
	}

	for key := range sections {
		switch key {
		case keyFormatVersion, keyFileTypes, keyHlspName, keyIngest,
			keyFilePaths, keyKeywordUpdates, keyUniqueParameters:
		default:
			d.reset()
			return &hlsperrors.DocumentFormatError{
				Path: path, Key: key, Reason: "unknown top-level key",
			}
		}
	}

	d.reset()
	if err := d.decodeSections(sections); err != nil {
		d.reset()
		return &hlsperrors.DocumentFormatError{Path: path, Reason: err.Error()}
	}

	d.log.Info().
		Str("hlsp", d.name).
		Str("path", path).
		Int("file_types", d.fileTypes.Len()).
		Int("keywords", d.working.Len()).
		Msg("loaded document")

	return nil
}

// reset restores the fresh-document state, keeping the configured root
// directory, template store and logger.
func (d *Document) reset() {
	d.name = DefaultName
	d.format = semver.MustParse(FormatVersion)
	d.stages = StageSet{}
	d.filePaths = FilePaths{}
	d.fileTypes.Clear()
	d.params.Clear()
	d.standard.Clear()
	d.working.Clear()
	d.updates.Clear()
	d.paths = newStagePaths(d.paths.root, d.name)
}

func (d *Document) decodeSections(sections map[string]*yaml.Node) error {
	if node, ok := sections[keyFormatVersion]; ok {
		var raw string
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("%s: %w", keyFormatVersion, err)
		}
		format, err := semver.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s %q: %w", keyFormatVersion, raw, err)
		}
		if format.Major > d.format.Major {
			return fmt.Errorf("%s %s is newer than supported revision %s",
				keyFormatVersion, format, d.format)
		}
		d.format = format
	}

	if node, ok := sections[keyHlspName]; ok {
		var name string
		if err := node.Decode(&name); err != nil {
			return fmt.Errorf("%s: %w", keyHlspName, err)
		}
		d.SetName(name)
	}

	if node, ok := sections[keyFilePaths]; ok {
		if err := node.Decode(&d.filePaths); err != nil {
			return fmt.Errorf("%s: %w", keyFilePaths, err)
		}
	}

	if node, ok := sections[keyFileTypes]; ok {
		if err := node.Decode(&d.fileTypes); err != nil {
			return fmt.Errorf("%s: %w", keyFileTypes, err)
		}
	}

	// Re-derive before replay: the stored updates are a diff against the
	// template-derived standard set, not a full keyword listing.
	if err := d.DeriveStandardKeywords(); err != nil {
		return fmt.Errorf("%s: %w", keyFileTypes, err)
	}

	if node, ok := sections[keyIngest]; ok {
		if err := node.Decode(&d.stages); err != nil {
			return fmt.Errorf("%s: %w", keyIngest, err)
		}
	}

	if node, ok := sections[keyUniqueParameters]; ok {
		if err := node.Decode(&d.params); err != nil {
			return fmt.Errorf("%s: %w", keyUniqueParameters, err)
		}
	}

	if node, ok := sections[keyKeywordUpdates]; ok {
		if err := node.Decode(&d.updates); err != nil {
			return fmt.Errorf("%s: %w", keyKeywordUpdates, err)
		}
		if err := d.ApplyUpdates(); err != nil {
			return fmt.Errorf("%s: %w", keyKeywordUpdates, err)
		}
	}

	return nil
}

// mappingNodes flattens the top-level YAML mapping into key to value node.
func mappingNodes(root *yaml.Node) (map[string]*yaml.Node, error) {
	node := root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return map[string]*yaml.Node{}, nil
		}
		node = node.Content[0]
	}

	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document root must be a mapping")
	}

	out := make(map[string]*yaml.Node, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out[node.Content[i].Value] = node.Content[i+1]
	}
	return out, nil
}
