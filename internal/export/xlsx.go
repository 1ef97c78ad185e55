package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/lunchwatch/lunchwatch/internal/refresh"
)

// XLSXWriter implements SnapshotWriter by writing a local .xlsx workbook.
// The file is rewritten from scratch on every export.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter targeting the given file path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

func (w *XLSXWriter) Write(_ context.Context, snap *refresh.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheet(f, balancesSheet, balanceRows(snap)); err != nil {
		return err
	}
	if err := writeSheet(f, netWorthSheet, totalRows(snap)); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("resolving cell for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("writing row %d of %s: %w", i+1, name, err)
		}
	}
	return nil
}
