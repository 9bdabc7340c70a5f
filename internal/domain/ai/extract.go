// Package ai holds the pure parts of AI recipe generation: prompt text,
// extraction of the fenced JSON block and decoding of the recipe draft.
package ai

import (
	"errors"
	"regexp"
)

// ErrNoJSONBlock is returned when a model response has no fenced JSON block
var ErrNoJSONBlock = errors.New("response has no ```json block")

// fencedJSON matches the first ```json fenced block. The newline after the
// opening fence and before the closing fence are part of the delimiters.
var fencedJSON = regexp.MustCompile("```json\\n([\\s\\S]*?)\\n```")

// ExtractJSON returns the text between the first ```json fence and its closing
// fence, exactly as it appears in the response. ok is false when the response
// has no well-formed fenced block.
func ExtractJSON(response string) (string, bool) {
	match := fencedJSON.FindStringSubmatch(response)
	if match == nil {
		return "", false
	}
	return match[1], true
}
