// Package validation provides input validation for identifiers that end up
// embedded in on-disk file paths (report IDs, record IDs, session IDs),
// grounded on the teacher's validation package: a pathSafeRegex plus small,
// single-purpose Validate* functions with no dependencies, to avoid import
// cycles between the store, ingest, and report packages.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// pathSafeRegex matches alphanumeric characters, underscores, and hyphens
// only. Used to validate identifiers that will be used in file paths.
var pathSafeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateSessionID validates that a session ID doesn't contain path
// separators, preventing path traversal when a session ID is used to build
// a log file path or a sessions-store key.
func ValidateSessionID(id string) error {
	if id == "" {
		return errors.New("session ID cannot be empty")
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("invalid session ID %q: contains path separators", id)
	}
	return nil
}

// ValidateRecordID validates a change/prompt record ID used in report
// content and log lines. Record IDs are generator-produced, so this exists
// to catch programming errors early rather than to sanitize external input.
func ValidateRecordID(id string) error {
	if id == "" {
		return errors.New("record ID cannot be empty")
	}
	if !pathSafeRegex.MatchString(id) {
		return fmt.Errorf("invalid record ID %q: must be alphanumeric with underscores/hyphens only", id)
	}
	return nil
}

// ValidateReportID validates a report ID used to build the
// reports/YYYY-MM-DD/report-{id}.json file path.
func ValidateReportID(id string) error {
	if id == "" {
		return errors.New("report ID cannot be empty")
	}
	if !pathSafeRegex.MatchString(id) {
		return fmt.Errorf("invalid report ID %q: must be alphanumeric with underscores/hyphens only", id)
	}
	return nil
}
