// Package merge reconciles transcribed speech with a live chat draft buffer.
package merge

import "strings"

// Merge combines the current draft text with newly transcribed text. An
// empty draft adopts the transcript verbatim; otherwise the transcript is
// appended after exactly one space. Both sides are whitespace-trimmed and
// the result never carries leading or trailing whitespace.
//
// Callers must pass the draft as it exists at merge time, not a snapshot
// taken when recording started, so that concurrent typing wins.
func Merge(existing string, transcribed string) string {
	existing = strings.TrimSpace(existing)
	transcribed = strings.TrimSpace(transcribed)

	if existing == "" {
		return transcribed
	}
	if transcribed == "" {
		return existing
	}
	return existing + " " + transcribed
}
