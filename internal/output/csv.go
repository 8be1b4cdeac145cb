package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/j-veylop/billing-report/internal/logger"
	"github.com/j-veylop/billing-report/internal/report"
)

// WriteCSV writes t to w with a header row matching the table columns.
func WriteCSV(w io.Writer, t report.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return err
	}
	return cw.Error()
}

// SaveCSV writes t to path, replacing any existing file only once the new
// contents are complete.
func SaveCSV(path string, t report.Table) error {
	tmpFile := path + ".tmp"
	f, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteCSV(f, t); err != nil {
		_ = f.Close()
		removeTemp(tmpFile)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		removeTemp(tmpFile)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		removeTemp(tmpFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Error("failed to remove temp file", "error", err)
	}
}
