// Package workbook maps sheet grids to and from .xlsx files.
package workbook

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"sjsage522/pricesheet/internal/sheet"
	"sjsage522/pricesheet/pkg/errors"
)

// Store reads and writes whole workbooks. Writes go through a temporary file
// in the target directory that replaces the target only once fully synced.
type Store struct{}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{}
}

// Load reads the named sheet of the workbook at path, or its first sheet when
// no sheet has that name. A missing file yields an error wrapping fs.ErrNotExist.
func (s *Store) Load(path, sheetName string) (*sheet.Grid, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("workbook %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	name := sheetName
	if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		name = list[0]
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", name, err)
	}

	g := sheet.New(name)
	for r, cells := range rows {
		for c, raw := range cells {
			if raw == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(name, ref)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", ref, err)
			}
			g.Set(r+1, c+1, parseCell(typ, raw))
		}
	}
	return g, nil
}

// parseCell keeps text cells as text, so codes like "007331101" survive, and
// reads numeric cells as decimals.
func parseCell(typ excelize.CellType, raw string) sheet.Value {
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if d, err := decimal.NewFromString(raw); err == nil {
			return sheet.Decimal(d)
		}
	}
	return sheet.String(raw)
}

// Save writes g to path atomically. Only the grid's sheet is rewritten; other
// sheets of an existing workbook are carried over.
func (s *Store) Save(path string, g *sheet.Grid) error {
	f, err := s.base(path, sheetName(g))
	if err != nil {
		return errors.NewWrite(path, "preparing workbook", err)
	}
	defer f.Close()

	if err := render(f, g); err != nil {
		return errors.NewWrite(path, "rendering workbook", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.NewWrite(path, "creating temporary file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return errors.NewWrite(path, "writing workbook", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.NewWrite(path, "syncing workbook", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewWrite(path, "closing workbook", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.NewWrite(path, "replacing workbook", err)
	}
	committed = true
	return nil
}

// base returns the workbook g is rendered into: the file at path with the
// named sheet emptied, or a new workbook when there is no readable file.
func (s *Store) base(path, name string) (*excelize.File, error) {
	if _, err := os.Stat(path); err != nil {
		return newFile(name)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		// Unreadable files are backed up by the merger before being replaced.
		return newFile(name)
	}
	if err := resetSheet(f, name); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Backup copies path next to itself as <name>.<tag><ext>.
func (s *Store) Backup(path, tag string) (string, error) {
	ext := filepath.Ext(path)
	dst := strings.TrimSuffix(path, ext) + "." + tag + ext

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}
