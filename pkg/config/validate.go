package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "dispatch.max_timeout").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together so that a
// misconfigured manager fails fast at construction, not at first request.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateHealth(&cfg.Health)...)
	errs = append(errs, validateDispatch(&cfg.Dispatch)...)
	errs = append(errs, validateEvents(&cfg.Events)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateHealth(cfg *HealthConfig) []FieldError {
	var errs []FieldError

	if cfg.CheckURL == "" {
		errs = append(errs, FieldError{
			Field:   "health.check_url",
			Message: "health-check URL cannot be empty",
		})
	} else if u, err := url.Parse(cfg.CheckURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "health.check_url",
			Message: fmt.Sprintf("invalid URL %q", cfg.CheckURL),
		})
	}

	if cfg.CheckInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "health.check_interval",
			Message: "check interval must be positive",
		})
	}

	return errs
}

func validateDispatch(cfg *DispatchConfig) []FieldError {
	var errs []FieldError

	if cfg.OnErrorRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "dispatch.on_error_retries",
			Message: "retry count cannot be negative",
		})
	}
	if cfg.OnTimeoutRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "dispatch.on_timeout_retries",
			Message: "retry count cannot be negative",
		})
	}
	if cfg.MaxTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "dispatch.max_timeout",
			Message: "per-attempt timeout must be positive",
		})
	}
	if cfg.ChangeProxyLoop < 1 {
		errs = append(errs, FieldError{
			Field:   "dispatch.change_proxy_loop",
			Message: "rotation loop count must be at least 1",
		})
	}

	return errs
}

func validateEvents(cfg *EventsConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}

	switch cfg.Backend {
	case EventsBackendMemory, EventsBackendSQLite:
	default:
		errs = append(errs, FieldError{
			Field:   "events.backend",
			Message: fmt.Sprintf("unknown backend %q (must be \"memory\" or \"sqlite\")", cfg.Backend),
		})
	}

	if cfg.Backend == EventsBackendSQLite && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "events.sqlite_path",
			Message: "sqlite path cannot be empty when backend is \"sqlite\"",
		})
	}

	if cfg.AsyncBuffer < 0 {
		errs = append(errs, FieldError{
			Field:   "events.async_buffer",
			Message: "async buffer size cannot be negative",
		})
	}

	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "events.retention.max_age",
			Message: "retention age cannot be negative",
		})
	}

	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "events.retention.schedule",
				Message: fmt.Sprintf("invalid cron schedule %q", cfg.Retention.Schedule),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown log level %q", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown log format %q", cfg.Logging.Format),
		})
	}

	return errs
}
