package config

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is the dotted config key,
// e.g. "storage.kind".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// StorageKinds lists the backends covideda ships with.
var StorageKinds = []string{"sqlite", "postgres", "mssql", "mysql"}

// MetricsBackends lists the accepted metrics.backend values.
var MetricsBackends = []string{"none", "pushgateway", "datadog"}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate performs static checks over c and returns every issue found. It
// does not touch the filesystem or the network.
func Validate(c Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels metrics and log lines")
	}

	// storage
	if !contains(StorageKinds, c.Storage.Kind) {
		add(SeverityError, "storage.kind", "unsupported storage kind %q (supported: %s)", c.Storage.Kind, strings.Join(StorageKinds, ", "))
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		add(SeverityError, "storage.dsn", "dsn must not be empty")
	}
	if !identRe.MatchString(c.Storage.Table) {
		add(SeverityError, "storage.table", "table %q is not a plain SQL identifier", c.Storage.Table)
	}

	// source
	if strings.TrimSpace(c.Source.Path) == "" {
		add(SeverityWarning, "source.path", "no case CSV configured; pass one to the load command")
	}
	if c.Source.Comma != "" {
		r, size := utf8.DecodeRuneInString(c.Source.Comma)
		switch {
		case size != len(c.Source.Comma):
			add(SeverityError, "source.comma", "comma must be a single character, got %q", c.Source.Comma)
		case r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError:
			add(SeverityError, "source.comma", "comma %q is not a valid delimiter", c.Source.Comma)
		}
	}

	// loader
	if c.Loader.BatchSize <= 0 {
		add(SeverityError, "loader.batch_size", "batch_size must be > 0, got %d", c.Loader.BatchSize)
	}
	if c.Loader.ChannelBuffer < 0 {
		add(SeverityError, "loader.channel_buffer", "channel_buffer must be >= 0, got %d", c.Loader.ChannelBuffer)
	}

	// census
	if strings.TrimSpace(c.Census.ProvincePath) == "" {
		add(SeverityWarning, "census.province_path", "reports 7 and 8 will report a missing census file")
	}
	if strings.TrimSpace(c.Census.SexPath) == "" {
		add(SeverityWarning, "census.sex_path", "report 9 will report a missing census file")
	}

	// metrics
	switch c.Metrics.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(c.Metrics.PushgatewayURL) == "" {
			add(SeverityError, "metrics.pushgateway_url", "pushgateway backend requires pushgateway_url")
		}
	case "datadog":
		if strings.TrimSpace(c.Metrics.DatadogAddr) == "" {
			add(SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr")
		}
	default:
		add(SeverityError, "metrics.backend", "unsupported metrics backend %q (supported: %s)", c.Metrics.Backend, strings.Join(MetricsBackends, ", "))
	}

	return issues
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
