package engine

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/Amr-9/rrt/pkg/models"
)

// LoadFixtures reads every data source and flattens its first data row into
// "name.column" keys.
func LoadFixtures(sources []models.DataSource) (map[string]string, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	fixtures := make(map[string]string)
	for _, src := range sources {
		row, err := readFirstRow(src.Path)
		if err != nil {
			return nil, fmt.Errorf("data source %q: %w", src.Name, err)
		}
		for col, val := range row {
			fixtures[src.Name+"."+col] = val
		}
	}
	return fixtures, nil
}

// readFirstRow returns the first record of a CSV file keyed by its header.
func readFirstRow(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for _, h := range headers {
		if h == "" {
			return nil, fmt.Errorf("csv header contains empty field")
		}
	}

	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv file must have a header and at least one row: %w", err)
	}

	record := make(map[string]string, len(headers))
	for i, val := range row {
		record[headers[i]] = val
	}
	return record, nil
}
