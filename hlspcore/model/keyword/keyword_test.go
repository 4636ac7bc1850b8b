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

package keyword_test

import (
	"errors"
	"testing"

	hlsperrors "github.com/spacetelescope/MAST-HLSP/hlspcore/errors"
	"github.com/spacetelescope/MAST-HLSP/hlspcore/model/keyword"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

func TestParseFields(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		want    keyword.Fields
		wantErr bool
	}{
		{
			name: "full template entry",
			params: map[string]any{
				"caom_keyword": "instrument_name",
				"caom_status":  "required",
				"hlsp_status":  "recommended",
				"data_type":    "str",
				"default":      "WFC3",
				"header":       0,
				"multiple":     false,
				"xml_parent":   "metadataList",
			},
			want: keyword.Fields{
				CaomKeyword: strPtr("instrument_name"),
				CaomStatus:  strPtr("required"),
				HlspStatus:  strPtr("recommended"),
				DataType:    strPtr("str"),
				Default:     strPtr("WFC3"),
				Header:      intPtr(0),
				Multiple:    boolPtr(false),
				XMLParent:   strPtr("metadataList"),
			},
		},
		{
			name:   "numeric default carried as text",
			params: map[string]any{"default": 3},
			want:   keyword.Fields{Default: strPtr("3")},
		},
		{
			name:   "empty entry",
			params: map[string]any{},
			want:   keyword.Fields{},
		},
		{
			name:    "unknown parameter",
			params:  map[string]any{"fits_comment": "x"},
			wantErr: true,
		},
		{
			name:    "header must be an integer",
			params:  map[string]any{"header": "one"},
			wantErr: true,
		},
		{
			name:    "multiple must be a boolean",
			params:  map[string]any{"multiple": "yes"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyword.ParseFields(tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseFields() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFields() unexpected error: %v", err)
			}
			if !fieldsEqual(got, tt.want) {
				t.Errorf("ParseFields() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFields_UnknownKeyErrorType(t *testing.T) {
	_, err := keyword.ParseFields(map[string]any{"bogus": "x"})

	var parseErr *hlsperrors.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("ParseFields() error = %T, want *ParseError", err)
	}
	if parseErr.Value != "bogus" {
		t.Errorf("ParseError.Value = %q, want %q", parseErr.Value, "bogus")
	}
}

func TestNewRecord(t *testing.T) {
	tests := []struct {
		name        string
		fitsKeyword string
		fields      keyword.Fields
		source      keyword.Source
		want        keyword.Record
		wantErr     bool
	}{
		{
			name:        "uppercases and trims the identifier",
			fitsKeyword: "  telescop ",
			fields:      keyword.Fields{CaomKeyword: strPtr("telescope_name")},
			source:      keyword.SourceStandard,
			want: keyword.Record{
				FitsKeyword: "TELESCOP",
				CaomKeyword: "telescope_name",
				XMLParent:   keyword.DefaultXMLParent,
				Source:      keyword.SourceStandard,
			},
		},
		{
			name:        "explicit parent wins over the default",
			fitsKeyword: "filter",
			fields:      keyword.Fields{XMLParent: strPtr("provenance")},
			source:      keyword.SourceOverride,
			want: keyword.Record{
				FitsKeyword: "FILTER",
				XMLParent:   "provenance",
				Source:      keyword.SourceOverride,
			},
		},
		{
			name:        "empty identifier rejected",
			fitsKeyword: "   ",
			source:      keyword.SourceStandard,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyword.NewRecord(tt.fitsKeyword, tt.fields, tt.source)
			if tt.wantErr {
				if err == nil {
					t.Fatal("NewRecord() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRecord() unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NewRecord() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecord_Update(t *testing.T) {
	base := keyword.Record{
		FitsKeyword: "TELESCOP",
		CaomKeyword: "telescope_name",
		Default:     "HST",
		Header:      0,
		Source:      keyword.SourceStandard,
	}

	tests := []struct {
		name        string
		fields      keyword.Fields
		wantChanged bool
		check       func(t *testing.T, r keyword.Record)
	}{
		{
			name:        "supplied field overwrites",
			fields:      keyword.Fields{Default: strPtr("JWST")},
			wantChanged: true,
			check: func(t *testing.T, r keyword.Record) {
				if r.Default != "JWST" {
					t.Errorf("Default = %q, want %q", r.Default, "JWST")
				}
			},
		},
		{
			name:        "zero value overwrites when supplied",
			fields:      keyword.Fields{Default: strPtr("")},
			wantChanged: true,
			check: func(t *testing.T, r keyword.Record) {
				if r.Default != "" {
					t.Errorf("Default = %q, want empty", r.Default)
				}
			},
		},
		{
			name:        "nil pointer leaves field untouched",
			fields:      keyword.Fields{Header: intPtr(1)},
			wantChanged: true,
			check: func(t *testing.T, r keyword.Record) {
				if r.Default != "HST" {
					t.Errorf("Default = %q, want %q", r.Default, "HST")
				}
				if r.Header != 1 {
					t.Errorf("Header = %d, want 1", r.Header)
				}
			},
		},
		{
			name:        "restating the current value is not a change",
			fields:      keyword.Fields{Default: strPtr("HST")},
			wantChanged: false,
			check:       func(t *testing.T, r keyword.Record) {},
		},
		{
			name:        "empty payload is a no-op",
			fields:      keyword.Fields{},
			wantChanged: false,
			check:       func(t *testing.T, r keyword.Record) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base.Clone()
			if changed := r.Update(tt.fields); changed != tt.wantChanged {
				t.Errorf("Update() changed = %t, want %t", changed, tt.wantChanged)
			}
			if r.FitsKeyword != base.FitsKeyword {
				t.Errorf("Update() touched identity: %q", r.FitsKeyword)
			}
			if r.Source != base.Source {
				t.Errorf("Update() touched source: %q", r.Source)
			}
			tt.check(t, r)
		})
	}
}

func TestRecord_Delta(t *testing.T) {
	standard := keyword.Record{
		FitsKeyword: "INSTRUME",
		CaomKeyword: "instrument_name",
		Default:     "WFC3",
		Source:      keyword.SourceStandard,
	}

	t.Run("differing fields only", func(t *testing.T) {
		edited := standard.Clone()
		edited.Default = "ACS"
		edited.Header = 1
		edited.Source = keyword.SourceOverride

		delta, changed := edited.Delta(standard)
		if !changed {
			t.Fatal("Delta() changed = false, want true")
		}
		if delta.Default == nil || *delta.Default != "ACS" {
			t.Errorf("Delta().Default = %v, want ACS", delta.Default)
		}
		if delta.Header == nil || *delta.Header != 1 {
			t.Errorf("Delta().Header = %v, want 1", delta.Header)
		}
		if delta.CaomKeyword != nil {
			t.Errorf("Delta().CaomKeyword = %v, want nil", *delta.CaomKeyword)
		}
	})

	t.Run("source alone is not a difference", func(t *testing.T) {
		restated := standard.Clone()
		restated.Source = keyword.SourceOverride

		if _, changed := restated.Delta(standard); changed {
			t.Error("Delta() changed = true for a source-only difference")
		}
	})

	t.Run("delta applied to base reconstructs the record", func(t *testing.T) {
		edited := standard.Clone()
		edited.Default = "ACS"

		delta, _ := edited.Delta(standard)
		rebuilt := standard.Clone()
		rebuilt.Update(delta)

		if !rebuilt.Equal(edited) {
			t.Errorf("rebuilt = %v, want %v", rebuilt, edited)
		}
	})
}

func TestRecord_NonZeroFields(t *testing.T) {
	r := keyword.Record{
		FitsKeyword: "FILTER",
		Default:     "F606W",
		Header:      2,
		Source:      keyword.SourceOverride,
	}

	f := r.NonZeroFields()
	if f.Default == nil || *f.Default != "F606W" {
		t.Errorf("NonZeroFields().Default = %v, want F606W", f.Default)
	}
	if f.Header == nil || *f.Header != 2 {
		t.Errorf("NonZeroFields().Header = %v, want 2", f.Header)
	}
	if f.CaomKeyword != nil || f.CaomStatus != nil || f.HlspStatus != nil ||
		f.DataType != nil || f.Multiple != nil || f.XMLParent != nil {
		t.Errorf("NonZeroFields() supplied a zero field: %+v", f)
	}
}

func TestRecord_SortKey(t *testing.T) {
	mapped := keyword.Record{FitsKeyword: "TELESCOP", CaomKeyword: "telescope_name"}
	unmapped := keyword.Record{FitsKeyword: "AAAA"}

	if mapped.SortKey() >= unmapped.SortKey() {
		t.Error("mapped keyword must sort before unmapped keyword")
	}

	a := keyword.Record{FitsKeyword: "X", CaomKeyword: "aperture"}
	b := keyword.Record{FitsKeyword: "Y", CaomKeyword: "bandpass"}
	if a.SortKey() >= b.SortKey() {
		t.Error("mapped keywords must order by archive keyword")
	}
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		record  keyword.Record
		wantErr bool
	}{
		{
			"valid standard record",
			keyword.Record{FitsKeyword: "TELESCOP", Source: keyword.SourceStandard},
			false,
		},
		{
			"valid without source",
			keyword.Record{FitsKeyword: "TELESCOP"},
			false,
		},
		{
			"empty identifier",
			keyword.Record{},
			true,
		},
		{
			"lowercase identifier",
			keyword.Record{FitsKeyword: "telescop"},
			true,
		},
		{
			"negative header",
			keyword.Record{FitsKeyword: "TELESCOP", Header: -1},
			true,
		},
		{
			"unknown source marker",
			keyword.Record{FitsKeyword: "TELESCOP", Source: "derived"},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestRecord_IsZero(t *testing.T) {
	if !(keyword.Record{}).IsZero() {
		t.Error("zero Record should report IsZero")
	}
	if (keyword.Record{FitsKeyword: "X"}).IsZero() {
		t.Error("populated Record should not report IsZero")
	}
}

func fieldsEqual(a, b keyword.Fields) bool {
	eqStr := func(x, y *string) bool {
		if (x == nil) != (y == nil) {
			return false
		}
		return x == nil || *x == *y
	}
	eqInt := func(x, y *int) bool {
		if (x == nil) != (y == nil) {
			return false
		}
		return x == nil || *x == *y
	}
	eqBool := func(x, y *bool) bool {
		if (x == nil) != (y == nil) {
			return false
		}
		return x == nil || *x == *y
	}

	return eqStr(a.CaomKeyword, b.CaomKeyword) &&
		eqStr(a.CaomStatus, b.CaomStatus) &&
		eqStr(a.HlspStatus, b.HlspStatus) &&
		eqStr(a.DataType, b.DataType) &&
		eqStr(a.Default, b.Default) &&
		eqInt(a.Header, b.Header) &&
		eqBool(a.Multiple, b.Multiple) &&
		eqStr(a.XMLParent, b.XMLParent)
}
