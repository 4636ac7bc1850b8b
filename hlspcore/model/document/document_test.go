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

package document_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	hlsperrors "github.com/spacetelescope/MAST-HLSP/hlspcore/errors"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/document"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/filetype"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/keyword"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/param"
)

const wfc3Template = `KEYWORDS:
  TELESCOP:
    caom_keyword: telescope_name
    caom_status: required
    default: HST
  INSTRUME:
    caom_keyword: instrument_name
    default: WFC3
    header: 0
`

const staticValues = `hlsp:
  provenance:
    name: ">"
    reference: ">"
hst:
  metadataList:
    intent: science
wfc3:
  metadataList:
    instrument_keywords: [FILTER, DETECTOR]
`

func findKeyword(d *document.Document, fitsKeyword string) (keyword.Record, bool) {
	for _, r := range d.Keywords() {
		if r.FitsKeyword == fitsKeyword {
			return r, true
		}
	}
	return keyword.Record{}, false
}

// newTestRoot lays down the template fixtures a derivation run reads.
func newTestRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	write := func(rel, content string) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	write("CHECK_METADATA_FORMAT/TEMPLATES/hst_wfc3.yml", wfc3Template)
	write("PREP_CAOM/resources/hlsp_caom_staticvalues.yaml", staticValues)

	return root
}

func newTestDocument(t *testing.T, root, name string) *document.Document {
	t.Helper()
	d := document.NewNamed(name, document.Config{RootDir: root})
	return d
}

func addWfc3FileType(t *testing.T, d *document.Document) {
	t.Helper()
	err := d.AddFileType(filetype.Entry{
		FileType:    "drz.fits",
		Standard:    "wfc3",
		ProductType: "hst",
		RunCheck:    true,
	})
	if err != nil {
		t.Fatalf("AddFileType() unexpected error: %v", err)
	}
}

func TestDocument_DeriveStandardKeywords(t *testing.T) {
	root := newTestRoot(t)
	d := newTestDocument(t, root, "demo_hlsp")
	addWfc3FileType(t, d)

	if err := d.DeriveStandardKeywords(); err != nil {
		t.Fatalf("DeriveStandardKeywords() unexpected error: %v", err)
	}

	keywords := d.Keywords()
	if len(keywords) != 2 {
		t.Fatalf("Keywords() len = %d, want 2", len(keywords))
	}

	byID := make(map[string]keyword.Record, len(keywords))
	for _, r := range keywords {
		byID[r.FitsKeyword] = r
	}

	telescop, ok := byID["TELESCOP"]
	if !ok {
		t.Fatal("derived keywords missing TELESCOP")
	}
	if telescop.CaomKeyword != "telescope_name" || telescop.Default != "HST" {
		t.Errorf("TELESCOP = %v, want template values", telescop)
	}
	if telescop.Source != keyword.SourceStandard {
		t.Errorf("TELESCOP.Source = %q, want standard", telescop.Source)
	}
	if telescop.XMLParent != keyword.DefaultXMLParent {
		t.Errorf("TELESCOP.XMLParent = %q, want %q", telescop.XMLParent, keyword.DefaultXMLParent)
	}

	// Static values: the pipeline-wide section plus the product-type and
	// instrument halves of "hst_wfc3".
	if v, ok := d.Parameter("metadataList", "intent"); !ok || v.Text() != "science" {
		t.Errorf("Parameter(metadataList, intent) = %v, %t", v, ok)
	}
	if v, ok := d.Parameter("metadataList", "instrument_keywords"); !ok || v.Kind() != param.KindList {
		t.Errorf("Parameter(metadataList, instrument_keywords) = %v, %t, want list", v, ok)
	}
}

func TestDocument_DeriveTwiceNoDuplicates(t *testing.T) {
	root := newTestRoot(t)
	d := newTestDocument(t, root, "demo_hlsp")
	addWfc3FileType(t, d)

	if err := d.DeriveStandardKeywords(); err != nil {
		t.Fatalf("first derivation: %v", err)
	}
	if err := d.DeriveStandardKeywords(); err != nil {
		t.Fatalf("second derivation: %v", err)
	}

	if got := len(d.Keywords()); got != 2 {
		t.Errorf("Keywords() len = %d after double derivation, want 2", got)
	}
}

func TestDocument_DeriveEmptyRegistryIsNoOp(t *testing.T) {
	// No fixtures on disk: derivation must not read anything.
	d := newTestDocument(t, t.TempDir(), "demo_hlsp")

	if err := d.DeriveStandardKeywords(); err != nil {
		t.Fatalf("DeriveStandardKeywords() unexpected error: %v", err)
	}
	if len(d.Keywords()) != 0 {
		t.Error("derivation with no file types produced keywords")
	}
}

func TestDocument_PlaceholderSubstitution(t *testing.T) {
	root := newTestRoot(t)
	d := newTestDocument(t, root, "Foo")
	addWfc3FileType(t, d)

	if err := d.DeriveStandardKeywords(); err != nil {
		t.Fatalf("DeriveStandardKeywords() unexpected error: %v", err)
	}

	if v, _ := d.Parameter("provenance", "name"); v.Text() != "FOO" {
		t.Errorf("provenance name = %q, want FOO", v.Text())
	}
	if v, _ := d.Parameter("provenance", "reference"); v.Text() != "https://archive.stsci.edu/hlsp/foo" {
		t.Errorf("provenance reference = %q, want the archive URL", v.Text())
	}
}

func TestDocument_AddParameterNonPlaceholderKept(t *testing.T) {
	d := newTestDocument(t, t.TempDir(), "foo")

	d.AddParameter("name", "provenance", param.StringValue("Custom Title"))
	if v, _ := d.Parameter("provenance", "name"); v.Text() != "Custom Title" {
		t.Errorf("provenance name = %q, want the literal value kept", v.Text())
	}
}

func TestDocument_ComputeAndApplyUpdates(t *testing.T) {
	root := newTestRoot(t)
	d := newTestDocument(t, root, "demo_hlsp")
	addWfc3FileType(t, d)
	if err := d.DeriveStandardKeywords(); err != nil {
		t.Fatalf("DeriveStandardKeywords() unexpected error: %v", err)
	}

	t.Run("no edits yields no updates", func(t *testing.T) {
		d.ComputeUpdates()
		if got := len(d.KeywordUpdates()); got != 0 {
			t.Errorf("KeywordUpdates() len = %d, want 0", got)
		}
	})

	t.Run("edit yields a minimal delta", func(t *testing.T) {
		if _, err := d.UpdateKeyword("INSTRUME", keyword.Fields{Default: strPtr("ACS")}); err != nil {
			t.Fatalf("UpdateKeyword() unexpected error: %v", err)
		}

		d.ComputeUpdates()
		updates := d.KeywordUpdates()
		if len(updates) != 1 {
			t.Fatalf("KeywordUpdates() len = %d, want 1", len(updates))
		}
		if updates[0].FitsKeyword != "INSTRUME" || updates[0].Default != "ACS" {
			t.Errorf("update = %v, want INSTRUME delta", updates[0])
		}
		if updates[0].CaomKeyword != "" {
			t.Error("update carries unchanged fields")
		}
	})

	t.Run("replay onto a fresh derivation reconstructs state", func(t *testing.T) {
		if err := d.ResetKeywords(); err != nil {
			t.Fatalf("ResetKeywords() unexpected error: %v", err)
		}
		if err := d.ApplyUpdates(); err != nil {
			t.Fatalf("ApplyUpdates() unexpected error: %v", err)
		}

		byID := make(map[string]keyword.Record)
		for _, r := range d.Keywords() {
			byID[r.FitsKeyword] = r
		}
		if byID["INSTRUME"].Default != "ACS" {
			t.Errorf("INSTRUME.Default = %q, want ACS after replay", byID["INSTRUME"].Default)
		}
		if byID["INSTRUME"].CaomKeyword != "instrument_name" {
			t.Error("replay clobbered the standard CAOM mapping")
		}
	})
}

func TestDocument_AddKeywordUpdate(t *testing.T) {
	root := newTestRoot(t)
	d := newTestDocument(t, root, "demo_hlsp")
	addWfc3FileType(t, d)
	if err := d.DeriveStandardKeywords(); err != nil {
		t.Fatalf("DeriveStandardKeywords() unexpected error: %v", err)
	}

	edit, err := keyword.NewRecord("INSTRUME", keyword.Fields{Default: strPtr("ACS")}, keyword.SourceOverride)
	if err != nil {
		t.Fatalf("NewRecord() unexpected error: %v", err)
	}
	if err := d.AddKeywordUpdate(edit); err != nil {
		t.Fatalf("AddKeywordUpdate() unexpected error: %v", err)
	}

	t.Run("edit staged in the update list", func(t *testing.T) {
		updates := d.KeywordUpdates()
		if len(updates) != 1 {
			t.Fatalf("KeywordUpdates() len = %d, want 1", len(updates))
		}
		if updates[0].FitsKeyword != "INSTRUME" || updates[0].Default != "ACS" {
			t.Errorf("staged update = %+v", updates[0])
		}
	})

	t.Run("edit merged into the working set", func(t *testing.T) {
		got, ok := findKeyword(d, "INSTRUME")
		if !ok {
			t.Fatal("working set missing INSTRUME")
		}
		if got.Default != "ACS" {
			t.Errorf("working Default = %q, want ACS", got.Default)
		}
		if got.CaomKeyword != "instrument_name" {
			t.Errorf("working CaomKeyword = %q, standard value must survive the merge", got.CaomKeyword)
		}
	})

	t.Run("recompute keeps the genuine delta", func(t *testing.T) {
		d.ComputeUpdates()
		updates := d.KeywordUpdates()
		if len(updates) != 1 {
			t.Fatalf("KeywordUpdates() len = %d, want 1", len(updates))
		}
		if updates[0].Default != "ACS" {
			t.Errorf("recomputed update Default = %q, want ACS", updates[0].Default)
		}
	})
}

func TestDocument_SaveLoadRoundTrip(t *testing.T) {
	root := newTestRoot(t)
	cfg := document.Config{RootDir: root}

	d := document.NewNamed("demo_hlsp", cfg)
	addWfc3FileType(t, d)
	if err := d.DeriveStandardKeywords(); err != nil {
		t.Fatalf("DeriveStandardKeywords() unexpected error: %v", err)
	}

	if _, err := d.UpdateKeyword("INSTRUME", keyword.Fields{Default: strPtr("ACS")}); err != nil {
		t.Fatalf("UpdateKeyword() unexpected error: %v", err)
	}
	if _, err := d.UpdateKeyword("PROPOSID", keyword.Fields{Default: strPtr("12345")}); err != nil {
		t.Fatalf("UpdateKeyword() unexpected error: %v", err)
	}
	d.SetFilePaths(filepath.Join(root, "data"), filepath.Join(root, "out.xml"))
	if err := d.MarkStage(document.StageMetadataChecked, true); err != nil {
		t.Fatalf("MarkStage() unexpected error: %v", err)
	}

	path := filepath.Join(root, "demo_hlsp.hlsp")
	if err := d.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() unexpected error: %v", err)
	}

	loaded, err := document.Load(path, cfg)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if loaded.Name() != "demo_hlsp" {
		t.Errorf("Name() = %q, want demo_hlsp", loaded.Name())
	}
	if !loaded.StageDone(document.StageMetadataChecked) || loaded.StageDone(document.StageKeywordsSet) {
		t.Error("stage flags did not round-trip")
	}
	if got := loaded.FilePathConfig(); got.InputDir != filepath.Join(root, "data") {
		t.Errorf("FilePathConfig().InputDir = %q", got.InputDir)
	}

	byID := make(map[string]keyword.Record)
	for _, r := range loaded.Keywords() {
		byID[r.FitsKeyword] = r
	}
	if byID["INSTRUME"].Default != "ACS" {
		t.Errorf("INSTRUME.Default = %q, want ACS after reload", byID["INSTRUME"].Default)
	}
	if byID["INSTRUME"].CaomKeyword != "instrument_name" {
		t.Error("reload clobbered the standard CAOM mapping")
	}
	if byID["TELESCOP"].Default != "HST" {
		t.Error("reload lost an untouched standard keyword")
	}
	if _, ok := byID["PROPOSID"]; !ok {
		t.Error("reload lost an operator-added keyword")
	}

	if v, _ := loaded.Parameter("provenance", "name"); v.Text() != "DEMO_HLSP" {
		t.Errorf("provenance name = %q after reload, want DEMO_HLSP", v.Text())
	}

	// Save-load-save is stable.
	second := filepath.Join(root, "second.hlsp")
	if err := loaded.SaveTo(second); err != nil {
		t.Fatalf("second SaveTo() unexpected error: %v", err)
	}
	a, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(a) != string(b) {
		t.Error("reload-save produced a different document")
	}
}

func TestDocument_LoadUnknownKeyResets(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "bad.hlsp")
	content := "HlspName: demo\nBogusSection:\n  x: 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := document.Load(path, document.Config{RootDir: root})
	if err == nil {
		t.Fatal("Load() expected error for an unknown key")
	}

	var formatErr *hlsperrors.DocumentFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Load() error = %T, want *DocumentFormatError", err)
	}
	if formatErr.Key != "BogusSection" {
		t.Errorf("DocumentFormatError.Key = %q, want BogusSection", formatErr.Key)
	}

	// The document is reset, not half-loaded.
	if d.Name() != document.DefaultName {
		t.Errorf("Name() = %q after failed load, want %q", d.Name(), document.DefaultName)
	}
	if len(d.Keywords()) != 0 || len(d.FileTypes()) != 0 {
		t.Error("failed load left partial state behind")
	}
}

func TestDocument_LoadNewerMajorRejected(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "future.hlsp")
	if err := os.WriteFile(path, []byte("FormatVersion: 2.0.0\nHlspName: demo\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := document.Load(path, document.Config{RootDir: root})
	var formatErr *hlsperrors.DocumentFormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Load() error = %v, want *DocumentFormatError", err)
	}
}

func TestDocument_SaveCallerHint(t *testing.T) {
	root := newTestRoot(t)
	d := newTestDocument(t, root, "demo_hlsp")

	path, err := d.Save("check_file_names.py")
	if err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	want := filepath.Join(root, "CHECK_FILE_NAMES", "check_file_names_demo_hlsp.hlsp")
	if path != want {
		t.Errorf("Save() path = %q, want %q", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("saved file missing: %v", err)
	}

	// Unknown hints land at the default path.
	path, err = d.Save("compile_results")
	if err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if path != d.DefaultPath() {
		t.Errorf("Save() path = %q, want default %q", path, d.DefaultPath())
	}
}

func TestDocument_InputDirUnset(t *testing.T) {
	d := newTestDocument(t, t.TempDir(), "demo_hlsp")

	_, err := d.InputDir()
	var pathErr *hlsperrors.PathConfigError
	if !errors.As(err, &pathErr) {
		t.Fatalf("InputDir() error = %T, want *PathConfigError", err)
	}
	if pathErr.Key != "InputDir" {
		t.Errorf("PathConfigError.Key = %q, want InputDir", pathErr.Key)
	}

	d.SetFilePaths("/data/demo", "")
	got, err := d.InputDir()
	if err != nil {
		t.Fatalf("InputDir() unexpected error: %v", err)
	}
	if got != "/data/demo" {
		t.Errorf("InputDir() = %q, want /data/demo", got)
	}
}

func TestDocument_SetNameRecomputesPaths(t *testing.T) {
	root := t.TempDir()
	d := newTestDocument(t, root, "first")

	before := d.DefaultPath()
	d.SetName("Second")
	after := d.DefaultPath()

	if before == after {
		t.Error("SetName() did not recompute the default path")
	}
	if want := filepath.Join(root, "second.hlsp"); after != want {
		t.Errorf("DefaultPath() = %q, want %q", after, want)
	}
}

func TestDocument_IngestReady(t *testing.T) {
	d := newTestDocument(t, t.TempDir(), "demo")

	if d.IngestReady() {
		t.Error("fresh document reports ready")
	}
	if err := d.MarkStage(document.StageParametersAdded, true); err != nil {
		t.Fatalf("MarkStage() unexpected error: %v", err)
	}
	if !d.IngestReady() {
		t.Error("document with all stages complete reports not ready")
	}
}

func strPtr(s string) *string { return &s }
