package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// DefaultHistoryLimit caps the bounded session history.
const DefaultHistoryLimit = 50

// Config adds medai-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string
	HistoryLimit          int
	DataFile              string
	DatabaseURL           string
	DeviceSeed            uint64
	TranscribeEndpoint    string
	TranscribeLanguage    string
	SlackWebhookURL       string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on API routes (empty = no auth)")
	fs.IntVar(&c.HistoryLimit, "history-limit", DefaultHistoryLimit, "maximum sessions kept in history (1..1000)")
	fs.StringVar(&c.DataFile, "data-file", "medai_sessions.json", "path of the session history document (empty = in-memory only)")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = file or in-memory store)")
	fs.Uint64Var(&c.DeviceSeed, "device-seed", 0, "seed for the vital-sign simulator (0 = random)")
	fs.StringVar(&c.TranscribeEndpoint, "transcribe-endpoint", "", "speech-to-text endpoint for voice capture (empty = capability unavailable)")
	fs.StringVar(&c.TranscribeLanguage, "transcribe-language", "en-US", "BCP-47 language tag passed through to the transcription endpoint")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for high-urgency notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	if c.HistoryLimit <= 0 || c.HistoryLimit > 1000 {
		errs = append(errs, fmt.Errorf("invalid HISTORY_LIMIT %d (must be 1..1000)", c.HistoryLimit))
	}

	// Language tag is passed through to the transcription endpoint, which
	// rejects empty tags
	if c.TranscribeEndpoint != "" && c.TranscribeLanguage == "" {
		errs = append(errs, errors.New("TRANSCRIBE_LANGUAGE is required when TRANSCRIBE_ENDPOINT is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
