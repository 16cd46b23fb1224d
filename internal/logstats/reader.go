// Package logstats parses nginx access logs and aggregates per-URL request
// time statistics for report generation.
package logstats

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/R3E-Network/scoring_service/pkg/logger"
)

// logFilePrefix identifies the access logs this analyzer understands.
const logFilePrefix = "nginx-access-ui"

// logPattern matches the ui_short nginx log format; the groups of interest
// are the request line and the trailing request time.
var logPattern = regexp.MustCompile(
	`^([\d\.]+)\s+` + // remote_addr
		`([^ ]*)\s+` + // remote_user
		`([^ ]*)\s+` + // http_x_real_ip
		`\[(.*?)\]\s+` + // time_local
		`"(.*?)"\s+` + // request
		`(\d+)\s+` + // status
		`(\d+)\s+` + // body_bytes_sent
		`"(.*?)"\s+` + // http_referer
		`"(.*?)"\s+` + // http_user_agent
		`"(.*?)"\s+` + // http_x_forwarded_for
		`"(.*?)"\s+` + // http_x_request_id
		`"(.*?)"\s+` + // http_x_rb_user
		`([\d\.]+)`) // request_time

const (
	groupRequest     = 5
	groupRequestTime = 13
)

var requestURLPattern = regexp.MustCompile(`^(?:GET|POST|PUT|DELETE|HEAD|OPTIONS|PATCH)\s+(\S+)`)

var fileDatePattern = regexp.MustCompile(`-(\d{8})(?:\.gz)?$`)

// Entry is one parsed access log line.
type Entry struct {
	URL         string
	RequestTime float64
}

// ParseResult carries the parsed entries and line accounting for the error
// threshold check.
type ParseResult struct {
	Entries   []Entry
	Total     int
	Malformed int
}

// ErrorRatio is the share of lines that failed to parse.
func (r *ParseResult) ErrorRatio() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Malformed) / float64(r.Total)
}

// FindLogFiles returns the access log files in dir.
func FindLogFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("log directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("log directory %q is not a directory", dir)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read log directory: %w", err)
	}

	var files []string
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), logFilePrefix) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// LatestLogFile picks the most recent log file by the date embedded in its
// name. Files without a parseable date are skipped. Returns the zero time
// and empty path when nothing qualifies.
func LatestLogFile(files []string) (time.Time, string) {
	var latestDate time.Time
	var latestFile string

	for _, file := range files {
		match := fileDatePattern.FindStringSubmatch(filepath.Base(file))
		if match == nil {
			continue
		}
		date, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}
		if latestFile == "" || date.After(latestDate) {
			latestDate = date
			latestFile = file
		}
	}
	return latestDate, latestFile
}

// Parser reads and parses access log files, plain or gzip-compressed.
type Parser struct {
	log *logger.Logger
}

// NewParser constructs a parser.
func NewParser(log *logger.Logger) *Parser {
	if log == nil {
		log = logger.NewDefault("logstats")
	}
	return &Parser{log: log}
}

// ParseFile reads every line of the log file, skipping lines that do not
// match the expected format and counting them as malformed.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("open gzip log file: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	result := &ParseResult{}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result.Total++

		entry, ok := p.parseLine(line)
		if !ok {
			result.Malformed++
			p.log.WithField("line", lineNumber).Debug("skipping malformed log line")
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return result, nil
}

func (p *Parser) parseLine(line string) (Entry, bool) {
	match := logPattern.FindStringSubmatch(line)
	if match == nil {
		return Entry{}, false
	}

	request := match[groupRequest]
	url := request
	if urlMatch := requestURLPattern.FindStringSubmatch(request); urlMatch != nil {
		url = urlMatch[1]
	} else if parts := strings.Fields(request); len(parts) > 1 {
		url = parts[1]
	}

	requestTime, err := strconv.ParseFloat(match[groupRequestTime], 64)
	if err != nil {
		return Entry{}, false
	}
	return Entry{URL: url, RequestTime: requestTime}, true
}
