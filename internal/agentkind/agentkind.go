// Package agentkind identifies which coding agent produced a session, change,
// or prompt record. The recognized set is a closed tag with an open escape
// hatch for forward compatibility, grounded on agent.AgentName/AgentType in
// the teacher's registry package: a small set of well-known constants plus a
// raw string fallback, compared by label rather than by identity.
package agentkind

import "encoding/json"

// Kind identifies a coding agent. The zero value is Unknown.
type Kind struct {
	label string
}

// Recognized agent kinds.
var (
	Cursor     = Kind{"cursor"}
	CursorCLI  = Kind{"cursor-cli"}
	ClaudeCode = Kind{"claude-code"}
	OpenCode   = Kind{"opencode"}
	GeminiCLI  = Kind{"gemini-cli"}
	Unknown    = Kind{""}
)

var known = map[string]Kind{
	Cursor.label:     Cursor,
	CursorCLI.label:  CursorCLI,
	ClaudeCode.label: ClaudeCode,
	OpenCode.label:   OpenCode,
	GeminiCLI.label:  GeminiCLI,
}

// Parse returns the Kind for label. Unrecognized labels are accepted
// verbatim as a forward-compatible Kind rather than rejected: per the
// engine's event-ingest contract, an unknown agent label is stored as-is,
// never treated as an error.
func Parse(label string) Kind {
	if k, ok := known[label]; ok {
		return k
	}
	return Kind{label}
}

// String returns the raw label, which is also the wire/storage form.
func (k Kind) String() string {
	return k.label
}

// IsRecognized reports whether k is one of the closed set of well-known
// agent kinds (as opposed to a forward-compatibility label).
func (k Kind) IsRecognized() bool {
	_, ok := known[k.label]
	return ok
}

// Equal compares two kinds by their label, per the engine's rule that agent
// kind comparison is always by label, never by identity.
func (k Kind) Equal(other Kind) bool {
	return k.label == other.label
}

// MarshalJSON implements json.Marshaler, storing the kind as its raw label.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.label)
}

// UnmarshalJSON implements json.Unmarshaler, accepting any label verbatim.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = Parse(s)
	return nil
}
