package icons

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/navkit/pkg/format"
	"github.com/fulmenhq/navkit/pkg/safeio"
)

// Report is the JSON artifact written after each dedupe run.
type Report struct {
	Timestamp      string              `json:"timestamp"`
	DryRun         bool                `json:"dry_run"`
	Summary        Summary             `json:"summary"`
	Duplicates     map[string][]string `json:"duplicates"`
	Replacements   map[string]string   `json:"replacements"`
	FilesDeleted   []string            `json:"files_deleted"`
	Unreferenced   []string            `json:"unreferenced"`
	GenericIcons   []GenericStatus     `json:"generic_icons"`
	ReferenceScope string              `json:"reference_scope"`
	BackupDir      string              `json:"backup_dir,omitempty"`
}

// Summary holds the run's counts.
type Summary struct {
	OriginalCount     int `json:"original_count"`
	UniqueHashes      int `json:"unique_hashes"`
	DuplicateGroups   int `json:"duplicate_groups"`
	DuplicatesDeleted int `json:"duplicates_deleted"`
	UnreferencedCount int `json:"unreferenced_count"`
	FinalCount        int `json:"final_count"`
	ReferencesUpdated int `json:"references_updated"`
	FilesUpdated      int `json:"files_updated"`
}

// GenericStatus reports whether a configured generic icon exists.
type GenericStatus struct {
	Key         string `json:"key"`
	Filename    string `json:"filename"`
	Description string `json:"description,omitempty"`
	Present     bool   `json:"present"`
	Created     bool   `json:"created,omitempty"`
}

// WriteReport writes r as two-space indented JSON.
func WriteReport(path string, r *Report) error {
	data, err := format.MarshalIndent(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	return safeio.WriteFilePreservePerms(path, data)
}
