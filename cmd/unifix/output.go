package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func writeSummary(path string, results []jobResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"job_name",
		"path",
		"format",
		"mode",
		"success",
		"used_fallback",
		"fixes",
		"duration_ms",
		"errors",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.Name,
			r.Path,
			string(r.Format),
			r.Mode,
			strconv.FormatBool(r.Success),
			strconv.FormatBool(r.UsedFallback),
			strconv.Itoa(r.Fixes),
			formatDurationMS(r.Duration),
			strings.Join(r.Errors, "; "),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatDurationMS(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Microseconds())/1000, 'f', 1, 64)
}
