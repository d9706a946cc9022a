// Package report builds and serializes structured attribution query
// snapshots for issue filing, grounded on the teacher's debug.go /
// explain.go pattern of assembling a diagnostic snapshot object and writing
// it to a dated directory under the hook-data root.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/attrieng/engine/internal/attrerr"
	"github.com/attrieng/engine/internal/epoch"
	"github.com/attrieng/engine/internal/layout"
	"github.com/attrieng/engine/internal/perf"
	"github.com/attrieng/engine/internal/types"
)

// defaultCandidateLimit / developerCandidateLimit bound how many candidates
// a report embeds.
const (
	defaultCandidateLimit   = 5
	developerCandidateLimit = 10
	defaultPreviewChars     = 200
	developerPreviewChars   = 500
)

// ExpectedVerdict is the small enumeration of user-supplied expected
// outcomes attached to feedback.
type ExpectedVerdict string

const (
	ExpectedAI          ExpectedVerdict = "AI"
	ExpectedAIThenHuman ExpectedVerdict = "AI-then-human"
	ExpectedHuman       ExpectedVerdict = "human"
	ExpectedUnsure      ExpectedVerdict = "unsure"
)

// Feedback is free-text user commentary plus an optional expected-verdict
// tag, attached to a report after the fact.
type Feedback struct {
	Comment  string          `json:"comment,omitempty"`
	Expected ExpectedVerdict `json:"expected,omitempty"`
}

// Input bundles everything Generate needs to build a report.
type Input struct {
	Region      types.ChangedRegion
	Verdict     types.Verdict
	Candidates  []types.ChangeRecord
	Performance perf.Snapshot
	Environment Environment
	Feedback    *Feedback
	DeveloperMode bool
}

// FileInfo is the report's normalized-path, line-range section.
type FileInfo struct {
	FilePath  string `json:"filePath"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// HunkInfo is the report's joined-content section.
type HunkInfo struct {
	Content      string `json:"content"`
	LineCount    int    `json:"lineCount"`
	CharCount    int    `json:"charCount"`
}

// MatchResult is the report's verdict section.
type MatchResult struct {
	Class      types.Class `json:"class"`
	Similarity float64     `json:"similarity"`
	Confidence float64     `json:"confidence"`
	Partial    bool        `json:"partial,omitempty"`

	RecordID  string `json:"recordId,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Content   string `json:"content,omitempty"`
}

// CandidateEntry is one embedded candidate in the report's candidate list.
type CandidateEntry struct {
	RecordID        string  `json:"recordId"`
	JaccardEstimate float64 `json:"jaccardEstimate"`
	Timestamp       int64   `json:"timestamp"`
	ContentPreview  string  `json:"contentPreview"`
}

// DebugInfo is only populated in developer mode.
type DebugInfo struct {
	FilterStageCounts map[string]int   `json:"filterStageCounts"`
	AllCandidates     []CandidateEntry `json:"allCandidates"`
}

// Report is the full structured snapshot written to disk.
type Report struct {
	ReportID    string          `json:"reportId"`
	GeneratedAt string          `json:"generatedAt"`
	File        FileInfo        `json:"file"`
	Hunk        HunkInfo        `json:"hunk"`
	Match       MatchResult     `json:"match"`
	Candidates  []CandidateEntry `json:"candidates"`
	Environment Environment     `json:"environment"`
	Performance perf.Snapshot   `json:"performance"`
	Feedback    *Feedback       `json:"feedback,omitempty"`
	Debug       *DebugInfo      `json:"debug,omitempty"`
}

// Generate assembles a Report from in, choosing candidate and preview
// limits by developer mode.
func Generate(in Input) Report {
	now := epoch.Now()
	reportID := fmt.Sprintf("%d-%s", int64(now), uuid.NewString()[:8])

	hunkContent := strings.Join(in.Region.AddedLines, "\n")

	limit := defaultCandidateLimit
	previewChars := defaultPreviewChars
	if in.DeveloperMode {
		limit = developerCandidateLimit
		previewChars = developerPreviewChars
	}

	allEntries := buildCandidateEntries(in.Region, in.Candidates, previewChars)
	shown := allEntries
	if len(shown) > limit {
		shown = shown[:limit]
	}

	match := MatchResult{
		Class:      in.Verdict.Class,
		Similarity: in.Verdict.Similarity,
		Confidence: in.Verdict.Confidence,
		Partial:    in.Verdict.Partial,
	}
	if in.Verdict.MatchedRecord != nil {
		m := in.Verdict.MatchedRecord
		match.RecordID = m.RecordID
		match.Timestamp = int64(m.Timestamp)
		match.SessionID = m.SessionID
		match.Agent = m.Agent.String()
		match.Content = strings.Join(m.AddedLines, "\n")
	}

	rep := Report{
		ReportID:    reportID,
		GeneratedAt: now.Time().Format(time.RFC3339),
		File: FileInfo{
			FilePath:  in.Region.FilePath,
			StartLine: in.Region.StartLine,
			EndLine:   in.Region.EndLine,
		},
		Hunk: HunkInfo{
			Content:   hunkContent,
			LineCount: len(in.Region.AddedLines),
			CharCount: len(hunkContent),
		},
		Match:       match,
		Candidates:  shown,
		Environment: in.Environment,
		Performance: in.Performance,
		Feedback:    in.Feedback,
	}

	if in.DeveloperMode {
		rep.Debug = &DebugInfo{
			FilterStageCounts: in.Performance.CandidateCounts,
			AllCandidates:     allEntries,
		}
	}
	return rep
}

func buildCandidateEntries(region types.ChangedRegion, candidates []types.ChangeRecord, previewChars int) []CandidateEntry {
	regionText := strings.Join(region.AddedLines, "\n")
	entries := make([]CandidateEntry, 0, len(candidates))
	for _, c := range candidates {
		content := strings.Join(c.AddedLines, "\n")
		entries = append(entries, CandidateEntry{
			RecordID:        c.RecordID,
			JaccardEstimate: jaccardWordSimilarity(regionText, content),
			Timestamp:       int64(c.Timestamp),
			ContentPreview:  preview(content, previewChars),
		})
	}
	return entries
}

// jaccardWordSimilarity estimates similarity as the Jaccard index over each
// text's word set. This is a display-only estimate for the report's
// candidate list; verdicts are always computed from matcher.Similarity.
func jaccardWordSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// Save serializes rep to reports/YYYY-MM-DD/report-{reportId}.json under
// root.
func Save(_ context.Context, root string, rep Report) error {
	dateDir := layout.ReportDirPath(root, epoch.Now().DateString())
	if err := os.MkdirAll(dateDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", attrerr.ErrIOFailure, dateDir, err)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding report %s: %v", attrerr.ErrIOFailure, rep.ReportID, err)
	}

	path := dateDir + "/" + layout.ReportFileName(rep.ReportID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", attrerr.ErrIOFailure, path, err)
	}
	return nil
}

// Validate accepts any object with the report's required scalar fields
// present and well-typed, matching the engine's loose-validation contract
// for externally-filed reports (e.g. ones hand-edited before upload).
func Validate(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", attrerr.ErrCorruptRecord, err)
	}

	requiredStrings := []string{"reportId", "generatedAt"}
	for _, field := range requiredStrings {
		v, ok := raw[field]
		if !ok {
			return fmt.Errorf("%w: report missing required field %q", attrerr.ErrCorruptRecord, field)
		}
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%w: report field %q must be a string", attrerr.ErrCorruptRecord, field)
		}
	}

	match, ok := raw["match"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: report missing required object field %q", attrerr.ErrCorruptRecord, "match")
	}
	for _, field := range []string{"similarity", "confidence"} {
		v, ok := match[field]
		if !ok {
			return fmt.Errorf("%w: report.match missing required field %q", attrerr.ErrCorruptRecord, field)
		}
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("%w: report.match field %q must be numeric", attrerr.ErrCorruptRecord, field)
		}
	}
	return nil
}
