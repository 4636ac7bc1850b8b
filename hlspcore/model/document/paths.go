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
	"strings"
)

// FileExt is the extension of a persisted metadata document.
const FileExt = ".hlsp"

// Pipeline-stage program names. A caller hint passed to OutputPathFor,
// FindLogFile or Save is matched against these after stripping any
// directory and file extension, so "check_file_names.py",
// "check_file_names.log" and a bare "check_file_names" all select the
// same stage path.
const (
	CheckFileNamesCaller   = "check_file_names"
	PrecheckMetadataCaller = "precheck_data_format"
	CheckMetadataCaller    = "check_metadata_format"
)

// Stage output subdirectories under the pipeline root. The precheck and
// check stages share a directory, as do their templates.
const (
	checkFileNamesDir = "CHECK_FILE_NAMES"
	checkMetadataDir  = "CHECK_METADATA_FORMAT"
)

// stagePaths holds the per-stage file locations derived from the pipeline
// root directory and the product name. It is recomputed on every name
// change and on load; nothing here touches the filesystem.
type stagePaths struct {
	root        string
	defaultPath string
	byCaller    map[string]string
}

// newStagePaths derives the default document path and the per-stage output
// paths for a product. Filenames are built from the lowercased product
// name; stage outputs carry the stage program name as a prefix.
func newStagePaths(root, name string) stagePaths {
	base := strings.ToLower(name) + FileExt

	stageFile := func(caller string) string {
		return caller + "_" + base
	}

	return stagePaths{
		root:        root,
		defaultPath: filepath.Join(root, base),
		byCaller: map[string]string{
			CheckFileNamesCaller:   filepath.Join(root, checkFileNamesDir, stageFile(CheckFileNamesCaller)),
			PrecheckMetadataCaller: filepath.Join(root, checkMetadataDir, stageFile(PrecheckMetadataCaller)),
			CheckMetadataCaller:    filepath.Join(root, checkMetadataDir, stageFile(CheckMetadataCaller)),
		},
	}
}

// formatCaller normalizes a caller hint: the final path element with its
// extension removed. An empty hint stays empty.
func formatCaller(hint string) string {
	if hint == "" {
		return ""
	}
	caller := filepath.Base(hint)
	return strings.TrimSuffix(caller, filepath.Ext(caller))
}

// output returns the document path for a caller hint: the matching stage
// path, or the default path when the hint is empty or unknown.
func (p stagePaths) output(hint string) string {
	if path, ok := p.byCaller[formatCaller(hint)]; ok {
		return path
	}
	return p.defaultPath
}

// logFile returns where the given stage program writes its log: a
// <caller>.log beside the stage's document output, or under the root for
// an unknown hint.
func (p stagePaths) logFile(hint string) string {
	caller := formatCaller(hint)
	logName := caller + ".log"

	if path, ok := p.byCaller[caller]; ok {
		return filepath.Join(filepath.Dir(path), logName)
	}
	return filepath.Join(p.root, logName)
}
