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
	"path/filepath"
	"testing"
)

func TestNewStagePaths(t *testing.T) {
	p := newStagePaths("/hlsp", "Demo_Product")

	if want := filepath.Join("/hlsp", "demo_product.hlsp"); p.defaultPath != want {
		t.Errorf("defaultPath = %q, want %q", p.defaultPath, want)
	}

	want := filepath.Join("/hlsp", "CHECK_FILE_NAMES", "check_file_names_demo_product.hlsp")
	if got := p.byCaller[CheckFileNamesCaller]; got != want {
		t.Errorf("byCaller[check_file_names] = %q, want %q", got, want)
	}

	// Precheck and check share a stage directory.
	for _, caller := range []string{PrecheckMetadataCaller, CheckMetadataCaller} {
		if dir := filepath.Dir(p.byCaller[caller]); dir != filepath.Join("/hlsp", "CHECK_METADATA_FORMAT") {
			t.Errorf("byCaller[%s] dir = %q, want CHECK_METADATA_FORMAT", caller, dir)
		}
	}
}

func TestStagePaths_Output(t *testing.T) {
	p := newStagePaths("/hlsp", "demo")

	tests := []struct {
		name string
		hint string
		want string
	}{
		{
			"bare caller name",
			"check_file_names",
			p.byCaller[CheckFileNamesCaller],
		},
		{
			"script filename",
			"check_metadata_format.py",
			p.byCaller[CheckMetadataCaller],
		},
		{
			"full path with extension",
			"/usr/local/bin/precheck_data_format.py",
			p.byCaller[PrecheckMetadataCaller],
		},
		{
			"unknown hint falls back to default",
			"compile_results",
			p.defaultPath,
		},
		{
			"empty hint falls back to default",
			"",
			p.defaultPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.output(tt.hint); got != tt.want {
				t.Errorf("output(%q) = %q, want %q", tt.hint, got, tt.want)
			}
		})
	}
}

func TestStagePaths_LogFile(t *testing.T) {
	p := newStagePaths("/hlsp", "demo")

	tests := []struct {
		name string
		hint string
		want string
	}{
		{
			"stage log beside its output",
			"check_file_names.py",
			filepath.Join("/hlsp", "CHECK_FILE_NAMES", "check_file_names.log"),
		},
		{
			"shared metadata stage directory",
			"precheck_data_format",
			filepath.Join("/hlsp", "CHECK_METADATA_FORMAT", "precheck_data_format.log"),
		},
		{
			"unknown caller logs under the root",
			"compile_results.py",
			filepath.Join("/hlsp", "compile_results.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.logFile(tt.hint); got != tt.want {
				t.Errorf("logFile(%q) = %q, want %q", tt.hint, got, tt.want)
			}
		})
	}
}

func TestFormatCaller(t *testing.T) {
	tests := []struct {
		name string
		hint string
		want string
	}{
		{"bare name", "check_file_names", "check_file_names"},
		{"with extension", "check_file_names.py", "check_file_names"},
		{"full path", "/opt/tools/check_metadata_format.py", "check_metadata_format"},
		{"log filename", "precheck_data_format.log", "precheck_data_format"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatCaller(tt.hint); got != tt.want {
				t.Errorf("formatCaller(%q) = %q, want %q", tt.hint, got, tt.want)
			}
		})
	}
}
