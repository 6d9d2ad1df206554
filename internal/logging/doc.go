// Package logging builds the slog loggers used across vignette.
//
// Two output formats are supported: a human console format and JSON. Field
// keys are standardized here (component, stage, scene_id, correlation_id,
// event_type, error_hint) so that stage logs, HTTP logs, and store warnings
// stay greppable. WithContext derives attributes from context values stamped
// by the services package.
package logging
