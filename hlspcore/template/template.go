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

// Package template provides the lookup collaborators consumed by
// standard-keyword derivation: the per-standard FITS keyword templates and
// the pipeline-wide static values table.
//
// Both are YAML files living under the pipeline root directory. The
// package reads and decodes them; it produces nothing.
package template

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/keyword"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/param"
)

// Locations under the pipeline root directory.
const (
	// TemplatesDir holds one <standard>.yml keyword template per FITS
	// standard, keyed as "<product-type>_<instrument>".
	TemplatesDir = "CHECK_METADATA_FORMAT/TEMPLATES"

	// StaticValuesFile is the pipeline-wide static values table.
	StaticValuesFile = "PREP_CAOM/resources/hlsp_caom_staticvalues.yaml"
)

// Keywords is a template's keyword section: FITS keyword identifier to
// field payload.
type Keywords map[string]keyword.Fields

// StaticSection is one top-level section of the static values table:
// template parent name to parameter name/value pairs.
type StaticSection map[string]map[string]param.Value

// Store resolves template and static-value lookups against a pipeline
// root directory. Store performs no caching; each lookup reads the file,
// matching the single-shot call pattern of the pipeline tools.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given pipeline directory. The
// root is an explicit configuration value; the Store never scans the
// process environment for it.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the pipeline root directory the store resolves against.
func (s *Store) Root() string {
	return s.root
}

// TemplatePath returns the on-disk location of a standard's keyword
// template.
func (s *Store) TemplatePath(standard string) string {
	return filepath.Join(s.root, filepath.FromSlash(TemplatesDir), standard+".yml")
}

// Keywords loads the keyword template for the given standard name and
// returns its entries as identifier to field payload.
//
// The template file must exist and every entry must decode into known
// keyword fields; derivation cannot proceed from a template it does not
// fully understand.
func (s *Store) Keywords(standard string) (Keywords, error) {
	path := s.TemplatePath(standard)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read keyword template %s: %w", standard, err)
	}

	var raw struct {
		Keywords map[string]map[string]any `yaml:"KEYWORDS"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("cannot decode keyword template %s: %w", standard, err)
	}

	out := make(Keywords, len(raw.Keywords))
	for id, params := range raw.Keywords {
		fields, err := keyword.ParseFields(params)
		if err != nil {
			return nil, fmt.Errorf("keyword template %s, entry %s: %w", standard, id, err)
		}
		out[id] = fields
	}

	return out, nil
}

// StaticValues loads the static values table: top-level section name
// (the pipeline-wide "hlsp" section, product types, instruments) to
// template parent to parameter name/value pairs.
//
// A missing table file is an error; a missing section within it is the
// caller's normal optional-section case and is not detected here.
func (s *Store) StaticValues() (map[string]StaticSection, error) {
	path := filepath.Join(s.root, filepath.FromSlash(StaticValuesFile))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read static values table: %w", err)
	}

	var raw map[string]map[string]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("cannot decode static values table: %w", err)
	}

	out := make(map[string]StaticSection, len(raw))
	for section, parents := range raw {
		converted := make(StaticSection, len(parents))
		for parent, params := range parents {
			values := make(map[string]param.Value, len(params))
			for name, rawValue := range params {
				v, err := param.FromAny(rawValue)
				if err != nil {
					return nil, fmt.Errorf("static values %s.%s.%s: %w", section, parent, name, err)
				}
				values[name] = v
			}
			converted[parent] = values
		}
		out[section] = converted
	}

	return out, nil
}
