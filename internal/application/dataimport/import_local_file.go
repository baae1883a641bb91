package dataimport

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

type ImportLocalFileInput struct {
	Path        string
	Move        bool
	Authorities []string
}

type ImportLocalFileOutput struct {
	Path    string `json:"path"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// ImportLocalFile imports one CSV file below the configured folder on demand.
type ImportLocalFile interface {
	Execute(ctx context.Context, in ImportLocalFileInput) (ImportLocalFileOutput, error)
}

type importLocalFile struct {
	importer fileImporter
	baseDir  string
}

func NewImportLocalFile(importer fileImporter, baseDir string) ImportLocalFile {
	return &importLocalFile{importer: importer, baseDir: baseDir}
}

func (uc *importLocalFile) Execute(ctx context.Context, in ImportLocalFileInput) (ImportLocalFileOutput, error) {
	if !hasAuthority(in.Authorities, SuperAdminAuthority) {
		return ImportLocalFileOutput{}, fmt.Errorf("%w: file import requires %s", ErrPermissionDenied, SuperAdminAuthority)
	}

	sourcePath := strings.TrimSpace(in.Path)
	if sourcePath == "" || strings.ToLower(filepath.Ext(sourcePath)) != ".csv" {
		return ImportLocalFileOutput{}, ErrInvalidImportFile
	}
	full := filepath.Join(uc.baseDir, filepath.Clean("/"+sourcePath))

	result, err := uc.importer.ImportFile(ctx, full, in.Move)
	out := ImportLocalFileOutput{Path: sourcePath, OK: result.OK, Message: result.Message}
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidImportFile, err)
	}
	if !result.OK {
		return out, fmt.Errorf("%w: %s", ErrImportFailed, result.Message)
	}
	return out, nil
}

func hasAuthority(authorities []string, want string) bool {
	for _, a := range authorities {
		if a == want {
			return true
		}
	}
	return false
}
