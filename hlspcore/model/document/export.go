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
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	hlsperrors "github.com/spacetelescope/MAST-HLSP/hlspcore/errors"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/keyword"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/param"
)

// Names of the exported template tree. The root and its three sections are
// fixed; keyword records land under the section their XMLParent names,
// creating it when it is not one of the three.
const (
	exportRoot         = "CompositeObservation"
	exportMetadataList = "metadataList"
	exportProvenance   = "provenance"
	exportProductList  = "productList"
)

// Value-source marker wrapped around every exported parameter, telling the
// downstream ingest system the value is literal and not to be re-derived.
const exportLiteralSource = "VALUE"

// Header-source marker on exported keyword records: the value is read from
// a FITS header at ingest time.
const exportHeaderSource = "HEADER"

// element is one node of the exported template tree. A node carries either
// text or children, never both.
type element struct {
	XMLName  xml.Name
	Text     string     `xml:",chardata"`
	Children []*element `xml:",any"`
}

func newElement(name string) *element {
	return &element{XMLName: xml.Name{Local: name}}
}

func (e *element) child(name string) *element {
	c := newElement(name)
	e.Children = append(e.Children, c)
	return c
}

func (e *element) leaf(name, text string) {
	c := e.child(name)
	c.Text = text
}

// section returns the direct child with the given name, creating and
// appending it when absent.
func (e *element) section(name string) *element {
	for _, c := range e.Children {
		if c.XMLName.Local == name {
			return c
		}
	}
	return e.child(name)
}

// ExportTemplate renders the document as the CAOM-consumable XML template:
// a CompositeObservation root with metadataList, provenance and productList
// sections.
//
// Keyword records are inserted in natural sort order under the section
// their XMLParent names; parameters are inserted per section in sorted
// name order, each wrapped with the literal-value source marker; file
// types are inserted in type-tag order as product blocks. The provenance
// name is force-set to the uppercased product name first, overwriting any
// prior value unconditionally.
//
// The output carries a UTF-8 declaration and stable two-space indentation.
func (d *Document) ExportTemplate() ([]byte, error) {
	d.params.Set(provenanceSection, provenanceNameKey, param.StringValue(d.DisplayName()))

	root := newElement(exportRoot)
	root.child(exportMetadataList)
	root.child(exportProvenance)
	root.child(exportProductList)

	for _, r := range d.working.Sorted() {
		d.exportKeyword(root, r)
	}

	for _, sectionName := range d.params.SectionNames() {
		parent := root.section(sectionName)
		for _, name := range d.params.Names(sectionName) {
			v, _ := d.params.Get(sectionName, name)
			wrapper := parent.child(name)
			wrapper.leaf("source", exportLiteralSource)
			wrapper.leaf("value", v.Text())
		}
	}

	products := root.section(exportProductList)
	for _, e := range d.fileTypes.SortedByType() {
		p := products.child("product")
		p.leaf("fileType", e.FileType)
		if e.CaomProductType != "" {
			p.leaf("productType", e.CaomProductType)
		}
		if e.MRPCheck {
			p.leaf("fileStatus", "REQUIRED")
		} else {
			p.leaf("fileStatus", "OPTIONAL")
		}
	}

	body, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cannot encode template for %s: %w", d.name, err)
	}

	out := append([]byte(xml.Header), body...)
	return append(out, '\n'), nil
}

// exportKeyword appends one keyword record under its parent section. The
// element is named by the CAOM keyword, falling back to the lowercased
// FITS keyword for records without a CAOM mapping.
func (d *Document) exportKeyword(root *element, r keyword.Record) {
	name := r.CaomKeyword
	if name == "" {
		name = strings.ToLower(r.FitsKeyword)
	}

	node := root.section(r.XMLParent).child(name)
	node.leaf("source", exportHeaderSource)
	node.leaf("headerIndex", strconv.Itoa(r.Header))
	node.leaf("headerKeyword", r.FitsKeyword)
	if r.Default != "" {
		node.leaf("headerDefaultValue", r.Default)
	}
}

// WriteTemplate exports the template and writes it to the configured
// output path, creating parent directories as needed. An unconfigured
// output path fails with a PathConfigError. It returns the path written.
func (d *Document) WriteTemplate() (string, error) {
	if d.filePaths.Output == "" {
		return "", &hlsperrors.PathConfigError{Name: d.name, Key: "Output"}
	}

	data, err := d.ExportTemplate()
	if err != nil {
		return "", err
	}

	path := d.filePaths.Output
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("cannot create template directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("cannot write template: %w", err)
	}

	d.log.Info().
		Str("hlsp", d.name).
		Str("path", path).
		Msg("exported template")

	return path, nil
}
