// Package main runs a single pass of the nginx access log analyzer.
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/scoring_service/internal/logstats"
	"github.com/R3E-Network/scoring_service/pkg/logger"
)

// flagValues carries the parsed command-line flags; set records which were
// given explicitly so they win over the config file.
type flagValues struct {
	logDir     string
	reportDir  string
	reportSize int
	template   string
	set        map[string]bool
}

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	logDir := flag.String("log-dir", "./log", "Directory with nginx access logs")
	reportDir := flag.String("report-dir", "./reports", "Directory for generated reports")
	reportSize := flag.Int("report-size", 0, "Number of slowest URLs to report (0 uses the default)")
	template := flag.String("template", "", "Path to the report HTML template")
	flag.Parse()

	flags := flagValues{
		logDir:     *logDir,
		reportDir:  *reportDir,
		reportSize: *reportSize,
		template:   *template,
		set:        map[string]bool{},
	}
	flag.Visit(func(f *flag.Flag) { flags.set[f.Name] = true })

	var cfg logstats.AnalyzerConfig
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			logger.NewDefault("log-analyzer").WithError(err).Error("failed to load configuration")
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg = mergeFlags(cfg, flags)

	log := logger.NewDefault("log-analyzer")
	if err := logstats.NewAnalyzer(cfg, log).Run(); err != nil {
		log.WithError(err).Error("analysis failed")
		os.Exit(1)
	}
}

// mergeFlags overlays command-line flags on the file configuration.
// Explicitly given flags always win; flag defaults only fill fields the file
// left empty.
func mergeFlags(cfg logstats.AnalyzerConfig, flags flagValues) logstats.AnalyzerConfig {
	if flags.set["log-dir"] || cfg.LogDir == "" {
		cfg.LogDir = flags.logDir
	}
	if flags.set["report-dir"] || cfg.ReportDir == "" {
		cfg.ReportDir = flags.reportDir
	}
	if flags.reportSize > 0 {
		cfg.ReportSize = flags.reportSize
	}
	if flags.template != "" {
		cfg.Template = flags.template
	}
	return cfg
}

func loadConfig(path string) (logstats.AnalyzerConfig, error) {
	var cfg logstats.AnalyzerConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
