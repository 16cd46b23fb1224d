package logstats

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/R3E-Network/scoring_service/pkg/logger"
)

// AnalyzerConfig configures one analyzer run.
type AnalyzerConfig struct {
	LogDir        string  `yaml:"log_dir"`
	ReportDir     string  `yaml:"report_dir"`
	ReportSize    int     `yaml:"report_size"`
	Template      string  `yaml:"template"`
	MaxErrorRatio float64 `yaml:"max_error_ratio"`
}

// Analyzer finds the latest access log, aggregates it and renders the HTML
// report. A report that already exists is never regenerated.
type Analyzer struct {
	cfg AnalyzerConfig
	log *logger.Logger
}

// NewAnalyzer constructs an analyzer.
func NewAnalyzer(cfg AnalyzerConfig, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewDefault("log-analyzer")
	}
	if cfg.ReportSize <= 0 {
		cfg.ReportSize = 1000
	}
	if cfg.MaxErrorRatio <= 0 {
		cfg.MaxErrorRatio = 0.2
	}
	if cfg.Template == "" {
		cfg.Template = filepath.Join(cfg.ReportDir, "report.html")
	}
	return &Analyzer{cfg: cfg, log: log}
}

// Run executes one analysis pass. It returns nil when there is nothing to do
// (no logs, or the report already exists).
func (a *Analyzer) Run() error {
	files, err := FindLogFiles(a.cfg.LogDir)
	if err != nil {
		return err
	}

	date, latest := LatestLogFile(files)
	if latest == "" {
		a.log.Info("no access logs found, nothing to do")
		return nil
	}
	log := a.log.WithFields(map[string]interface{}{
		"log_file": latest,
		"date":     date.Format("2006-01-02"),
	})

	reportPath := filepath.Join(a.cfg.ReportDir, ReportFileName(date))
	if _, err := os.Stat(reportPath); err == nil {
		log.Info("report already exists, skipping")
		return nil
	}

	result, err := NewParser(a.log).ParseFile(latest)
	if err != nil {
		return err
	}
	if ratio := result.ErrorRatio(); ratio > a.cfg.MaxErrorRatio {
		return fmt.Errorf("parse error ratio %.3f exceeds threshold %.3f", ratio, a.cfg.MaxErrorRatio)
	}
	log.Infof("parsed %d lines (%d malformed)", result.Total, result.Malformed)

	rows := Aggregate(result.Entries, a.cfg.ReportSize)
	if err := RenderReport(rows, a.cfg.Template, reportPath); err != nil {
		return err
	}

	log.WithField("report", reportPath).Info("report generated")
	return nil
}
