package services

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	errNoJSON = errors.New("no parseable JSON in model output")

	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	fenceRe         = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// extractJSON recovers a JSON document from a model reply that may be wrapped
// in markdown fences or surrounded by prose. Candidates are tried in order and
// the first syntactically valid one wins:
//
//  1. the raw trimmed text
//  2. the text with a surrounding fenced-code block stripped
//  3. the substring between the first '{' and the last '}'
//  4. the substring between the first '[' and the last ']'
//
// Each candidate has trailing commas removed before a strict parse; a
// permissive pass handles single quotes and Python-style literals.
func extractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errNoJSON
	}

	candidates := []string{trimmed}

	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}

	if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start >= 0 && end > start {
		candidates = append(candidates, trimmed[start:end+1])
	}
	if start, end := strings.Index(trimmed, "["), strings.LastIndex(trimmed, "]"); start >= 0 && end > start {
		candidates = append(candidates, trimmed[start:end+1])
	}

	for _, candidate := range candidates {
		cleaned := trailingCommaRe.ReplaceAllString(candidate, "$1")

		if json.Valid([]byte(cleaned)) {
			return json.RawMessage(cleaned), nil
		}

		permissive := permissiveRepair(cleaned)
		if json.Valid([]byte(permissive)) {
			return json.RawMessage(permissive), nil
		}
	}

	return nil, errNoJSON
}

// permissiveRepair converts common non-JSON literal syntax (single-quoted
// strings, Python booleans and None) into strict JSON. Quote replacement is
// character-wise so escaped quotes inside strings survive.
func permissiveRepair(s string) string {
	var b strings.Builder
	inDouble := false
	inSingle := false
	escaped := false

	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case r == '\\' && (inDouble || inSingle):
			b.WriteRune(r)
			escaped = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			b.WriteRune(r)
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			b.WriteRune('"')
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	out = strings.ReplaceAll(out, ": True", ": true")
	out = strings.ReplaceAll(out, ": False", ": false")
	out = strings.ReplaceAll(out, ": None", ": null")
	return out
}
