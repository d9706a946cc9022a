// Package redact scrubs likely secrets out of content before it is written
// to the sharded log, grounded on the teacher's top-level redact package
// (entropy-based detection layered with gitleaks' pattern rules). The
// attribution engine persists change-record oldContent/newContent and raw
// prompt text verbatim to disk; without redaction, a captured API key or
// token pasted into a prompt or a file edit would sit in plaintext under
// hooks/ indefinitely (subject only to the retention policy's age cutoff,
// not to any content-aware removal).
package redact

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// secretPattern matches high-entropy strings that may be secrets.
var secretPattern = regexp.MustCompile(`[A-Za-z0-9/+_=-]{10,}`)

// entropyThreshold is the minimum Shannon entropy for a string to be
// considered a secret: high enough to avoid false positives on common
// identifiers, low enough to catch typical API keys and tokens.
const entropyThreshold = 4.5

var (
	detectorOnce sync.Once
	detector     *detect.Detector
)

func getDetector() *detect.Detector {
	detectorOnce.Do(func() {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return
		}
		detector = d
	})
	return detector
}

type region struct{ start, end int }

// String replaces likely secrets in s with "REDACTED" using two layered
// detectors: entropy-based (high-entropy alphanumeric runs) and
// pattern-based (gitleaks' built-in rule set). A substring is redacted if
// either detector flags it.
func String(s string) string {
	var regions []region

	for _, loc := range secretPattern.FindAllStringIndex(s, -1) {
		if shannonEntropy(s[loc[0]:loc[1]]) > entropyThreshold {
			regions = append(regions, region{loc[0], loc[1]})
		}
	}

	if d := getDetector(); d != nil {
		for _, f := range d.DetectString(s) {
			if f.Secret == "" {
				continue
			}
			from := 0
			for {
				idx := strings.Index(s[from:], f.Secret)
				if idx < 0 {
					break
				}
				abs := from + idx
				regions = append(regions, region{abs, abs + len(f.Secret)})
				from = abs + len(f.Secret)
			}
		}
	}

	if len(regions) == 0 {
		return s
	}
	return applyRedactions(s, regions)
}

// Lines redacts each line of lines independently, preserving order and
// count. Used for addedLines, where redaction must not change line
// boundaries.
func Lines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = String(l)
	}
	return out
}

func applyRedactions(s string, regions []region) string {
	sort.Slice(regions, func(i, j int) bool { return regions[i].start < regions[j].start })
	merged := []region{regions[0]}
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end {
			if r.end > last.end {
				last.end = r.end
			}
		} else {
			merged = append(merged, r)
		}
	}

	var b strings.Builder
	prev := 0
	for _, r := range merged {
		b.WriteString(s[prev:r.start])
		b.WriteString("REDACTED")
		prev = r.end
	}
	b.WriteString(s[prev:])
	return b.String()
}

func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	freq := make(map[byte]int)
	for i := range len(s) {
		freq[s[i]]++
	}
	length := float64(len(s))
	var entropy float64
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}
