package logstats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// tablePlaceholder is replaced with the JSON-encoded rows in the template.
const tablePlaceholder = "$table_json"

// ReportFileName returns the report name for a log date.
func ReportFileName(date time.Time) string {
	return fmt.Sprintf("report-%s.html", date.Format("2006.01.02"))
}

// RenderReport writes the report for rows into outputPath using the HTML
// template at templatePath.
func RenderReport(rows []Row, templatePath, outputPath string) error {
	template, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("read report template: %w", err)
	}

	table, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode report table: %w", err)
	}

	report := strings.Replace(string(template), tablePlaceholder, string(table), 1)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	// Write through a temp file so a crash never leaves a truncated report
	// that would be skipped as already generated.
	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".report-*")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if _, err := tmp.WriteString(report); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("move report into place: %w", err)
	}
	return nil
}
