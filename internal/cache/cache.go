// Package cache stores scraped financial data as JSON files under a root
// directory. Entries never expire; a forced scrape overwrites them.
package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/seenimoa/earningsinsights/pkg/models"
	"github.com/seenimoa/earningsinsights/pkg/utils"
)

const (
	metricsDir = "financial-metrics"
	reportsDir = "reports"
)

// ErrInvalidSymbol is returned for symbols that cannot be used as a path segment.
var ErrInvalidSymbol = eris.New("invalid symbol for cache path")

// Store is a flat JSON file cache.
type Store struct {
	root string
}

// New creates a store rooted at dir ("public" when empty).
func New(dir string) *Store {
	if dir == "" {
		dir = "public"
	}
	return &Store{root: dir}
}

// FilingPath returns the cache file of a filing:
// {root}/financial-metrics/{SYMBOL}/{Annual|Quarterly}/{year}/{name}.json,
// where name is the form type for 10-K and the quarter for 10-Q. A 10-Q
// without a quarter falls back to the form type.
func (s *Store) FilingPath(symbol string, f models.Filing) (string, error) {
	if !utils.ValidTicker(symbol) {
		return "", eris.Wrapf(ErrInvalidSymbol, "symbol %q", symbol)
	}

	period := "Quarterly"
	name := string(f.FormType)
	if f.FormType == models.Form10K {
		period = "Annual"
	} else if q := utils.QuarterOf(f.PeriodOfReport.Time); q != nil {
		name = *q
	}

	return filepath.Join(s.root, metricsDir, symbol, period, strconv.Itoa(f.Year()), name+".json"), nil
}

// ReportPath returns the cache file of a ticker's Yahoo Finance statements.
func (s *Store) ReportPath(symbol string) (string, error) {
	if !utils.ValidTicker(symbol) {
		return "", eris.Wrapf(ErrInvalidSymbol, "symbol %q", symbol)
	}
	return filepath.Join(s.root, reportsDir, symbol+".json"), nil
}

// Load decodes the file at path into dest. A missing file reports false
// without error.
func (s *Store) Load(path string, dest any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, eris.Wrapf(err, "read cache file %s", path)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, eris.Wrapf(err, "decode cache file %s", path)
	}
	return true, nil
}

// Save writes v as 2-space indented JSON. The file is replaced whole via
// a temp file and rename, so concurrent writers never interleave.
func (s *Store) Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode cache entry")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "create cache dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return eris.Wrapf(err, "chmod %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "rename to %s", path)
	}
	return nil
}

