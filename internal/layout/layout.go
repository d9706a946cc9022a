// Package layout centralizes every on-disk path and filename constant the
// sharded log store uses, grounded on the teacher's paths package pattern of
// keeping every directory/filename constant in one place rather than
// scattering string literals across callers.
package layout

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Top-level directory under a project root that owns all engine state.
const HookDataDir = "hooks"

// Stream subdirectories and files within HookDataDir.
const (
	ChangesDir          = "changes"
	PromptsDir          = "prompts"
	LogsDir             = "logs"
	ReportsDir          = "reports"
	SessionsStoreFile   = "sessions.store"
	PerformanceLogFile  = "performance.log"
	ConfigFile          = "config.json"
	ConfigLocalFile     = "config.local.json"
	ReportFileNameStem  = "report-"
	ReportFileExtension = ".json"
)

// shardNamePattern matches the mandatory YYYY-MM-DD.log shard filename.
var shardNamePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.log$`)

// ChangesPath returns the changes/ directory path under root.
func ChangesPath(root string) string {
	return filepath.Join(root, HookDataDir, ChangesDir)
}

// PromptsPath returns the prompts/ directory path under root.
func PromptsPath(root string) string {
	return filepath.Join(root, HookDataDir, PromptsDir)
}

// LogsPath returns the logs/ directory path under root.
func LogsPath(root string) string {
	return filepath.Join(root, HookDataDir, LogsDir)
}

// ReportsPath returns the reports/ directory path under root.
func ReportsPath(root string) string {
	return filepath.Join(root, HookDataDir, ReportsDir)
}

// PerformanceLogPath returns the full path to logs/performance.log.
func PerformanceLogPath(root string) string {
	return filepath.Join(LogsPath(root), PerformanceLogFile)
}

// SessionsStorePath returns the full path to the sessions.store file.
func SessionsStorePath(root string) string {
	return filepath.Join(root, HookDataDir, SessionsStoreFile)
}

// ConfigPath returns the full path to hooks/config.json.
func ConfigPath(root string) string {
	return filepath.Join(root, HookDataDir, ConfigFile)
}

// ConfigLocalPath returns the full path to hooks/config.local.json.
func ConfigLocalPath(root string) string {
	return filepath.Join(root, HookDataDir, ConfigLocalFile)
}

// ShardFileName returns the "YYYY-MM-DD.log" filename for a shard date.
func ShardFileName(dateString string) string {
	return dateString + ".log"
}

// IsShardFileName reports whether name matches the mandatory shard filename
// pattern. Retention must leave non-matching names untouched.
func IsShardFileName(name string) bool {
	return shardNamePattern.MatchString(name)
}

// ShardDate extracts the "YYYY-MM-DD" date component from a shard filename.
// Returns "" if name is not a valid shard filename.
func ShardDate(name string) string {
	if !IsShardFileName(name) {
		return ""
	}
	return strings.TrimSuffix(name, ".log")
}

// ReportDirPath returns the reports/YYYY-MM-DD directory for a given date.
func ReportDirPath(root, dateString string) string {
	return filepath.Join(ReportsPath(root), dateString)
}

// ReportFileName returns the "report-{id}.json" filename for a report id.
func ReportFileName(reportID string) string {
	return ReportFileNameStem + reportID + ReportFileExtension
}

// NormalizeFilePath normalizes a file path relative to a project root per
// the engine's path normalization rule: paths inside root are stored
// project-relative with forward slashes; paths outside root are stored
// absolute. This mirrors paths.ToRelativePath's "outside root gets a
// sentinel, otherwise Rel" shape, but here the "not relative" case keeps the
// absolute path rather than discarding it, since the spec requires absolute
// paths to remain queryable.
func NormalizeFilePath(path, root string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	if !filepath.IsAbs(path) {
		// Already relative: treat as already project-relative.
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// ResolveFilePath is the inverse of NormalizeFilePath: given a normalized,
// possibly-relative path and a root, returns the absolute path when the
// normalized form is relative, or the path unchanged when it is already
// absolute. Native separators are restored for filesystem use.
func ResolveFilePath(normalized, root string) string {
	native := filepath.FromSlash(normalized)
	if filepath.IsAbs(native) {
		return native
	}
	return filepath.Join(root, native)
}
