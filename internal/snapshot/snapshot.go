// Package snapshot loads raw scraper output from disk. A data directory
// holds one subdirectory per jurisdiction, each containing up to four
// files: legislators, committees, bills, and votes, as YAML or JSON lists.
// Missing files simply mean the scraper produced nothing of that kind.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/civiclens/legistry/internal/reconcile"
	"github.com/civiclens/legistry/pkg/errors"
)

var extensions = []string{".yaml", ".yml", ".json"}

// List returns the jurisdiction codes present in a data directory, sorted.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapParse("snapshot", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// Load reads one jurisdiction's batch from the data directory.
func Load(dir, jurisdiction string) (*reconcile.Batch, error) {
	base := filepath.Join(dir, jurisdiction)
	batch := &reconcile.Batch{Jurisdiction: jurisdiction}

	if err := loadKind(base, "legislators", &batch.Legislators); err != nil {
		return nil, err
	}
	if err := loadKind(base, "committees", &batch.Committees); err != nil {
		return nil, err
	}
	if err := loadKind(base, "bills", &batch.Bills); err != nil {
		return nil, err
	}
	if err := loadKind(base, "votes", &batch.Votes); err != nil {
		return nil, err
	}

	tagJurisdiction(batch)
	return batch, nil
}

// loadKind reads the first existing file for a record kind, trying each
// supported extension. No file at all leaves the slice nil.
func loadKind(base, name string, out any) error {
	for _, ext := range extensions {
		path := filepath.Join(base, name+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return errors.WrapParse("snapshot", path, err)
		}
		if ext == ".json" {
			if err := json.Unmarshal(data, out); err != nil {
				return errors.WrapParse("json", path, err)
			}
			return nil
		}
		if err := yaml.Unmarshal(data, out); err != nil {
			return errors.WrapParse("yaml", path, err)
		}
		return nil
	}
	return nil
}

// tagJurisdiction fills the jurisdiction code on records that omit it; the
// directory name is authoritative for the whole batch.
func tagJurisdiction(b *reconcile.Batch) {
	for i := range b.Legislators {
		if b.Legislators[i].Jurisdiction == "" {
			b.Legislators[i].Jurisdiction = b.Jurisdiction
		}
	}
	for i := range b.Committees {
		if b.Committees[i].Jurisdiction == "" {
			b.Committees[i].Jurisdiction = b.Jurisdiction
		}
	}
	for i := range b.Bills {
		if b.Bills[i].Jurisdiction == "" {
			b.Bills[i].Jurisdiction = b.Jurisdiction
		}
	}
	for i := range b.Votes {
		if b.Votes[i].Jurisdiction == "" {
			b.Votes[i].Jurisdiction = b.Jurisdiction
		}
	}
}
