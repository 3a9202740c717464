package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Amr-9/rrt/pkg/models"
)

// WriteJSON encodes the summary as indented JSON.
func WriteJSON(w io.Writer, summary *models.RunSummary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// SaveJSON writes the summary to path.
func SaveJSON(summary *models.RunSummary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file '%s': %w", path, err)
	}

	if err := WriteJSON(f, summary); err != nil {
		f.Close()
		return err
	}

	// Sync to ensure data is written to disk
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync report file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}

	return nil
}
