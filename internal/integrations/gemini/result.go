package gemini

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// FinishReasonMaxTokens marks a candidate cut off by the output token limit.
	FinishReasonMaxTokens = "MAX_TOKENS"

	TruncationNotice = "(Reply truncated — model hit token limit.)\n\n"
	EmptyResponse    = "(empty upstream response)"
	NoReply          = "(no reply)"

	debugDumpLimit = 2000
)

// Result is an upstream response body of unspecified shape. Only the fields
// the extractor needs are inspected; anything else is tolerated.
type Result struct {
	raw    string
	parsed gjson.Result
	ok     bool
}

// ParseResult wraps a raw response body. Bodies that are not valid JSON, or
// that decode to null or false, keep only their raw text.
func ParseResult(raw []byte) Result {
	r := Result{raw: string(raw)}
	if len(bytes.TrimSpace(raw)) == 0 || !gjson.ValidBytes(raw) {
		return r
	}
	parsed := gjson.ParseBytes(raw)
	if parsed.Type == gjson.Null || parsed.Type == gjson.False {
		return r
	}
	r.parsed = parsed
	r.ok = true
	return r
}

// Parsed reports whether the body was usable JSON.
func (r Result) Parsed() bool {
	return r.ok
}

func (r Result) firstCandidate() (gjson.Result, bool) {
	if !r.ok {
		return gjson.Result{}, false
	}
	cands := r.parsed.Get("candidates")
	if !cands.IsArray() {
		return gjson.Result{}, false
	}
	arr := cands.Array()
	if len(arr) == 0 {
		return gjson.Result{}, false
	}
	return arr[0], true
}

// HasText reports whether the first candidate carries any non-empty part text.
func (r Result) HasText() bool {
	cand, ok := r.firstCandidate()
	if !ok {
		return false
	}
	return len(partTexts(cand)) > 0
}

// FinishReason returns the first candidate's finish reason, if any.
func (r Result) FinishReason() string {
	cand, ok := r.firstCandidate()
	if !ok {
		return ""
	}
	return cand.Get("finishReason").String()
}

// Extract produces the display string for the body:
//
//  1. not JSON: the raw body, or EmptyResponse when there is none;
//  2. first candidate: joined part texts, else its output_text, else a
//     truncated dump of the candidate; prefixed with TruncationNotice when the
//     candidate stopped at the token limit;
//  3. top-level output_text;
//  4. a truncated dump of the whole body.
func (r Result) Extract() string {
	if !r.ok {
		if r.raw != "" {
			return r.raw
		}
		return EmptyResponse
	}

	reply := NoReply
	if cand, ok := r.firstCandidate(); ok {
		if texts := partTexts(cand); len(texts) > 0 {
			reply = strings.Join(texts, "\n")
		} else if alt := nonEmptyString(cand.Get("output_text")); alt != "" {
			reply = alt
		} else {
			reply = debugDump(cand.Raw)
		}
		if cand.Get("finishReason").String() == FinishReasonMaxTokens {
			reply = TruncationNotice + reply
		}
		return reply
	}
	if alt := nonEmptyString(r.parsed.Get("output_text")); alt != "" {
		return alt
	}
	if dump := debugDump(r.parsed.Raw); dump != "" {
		reply = dump
	}
	return reply
}

func partTexts(cand gjson.Result) []string {
	parts := cand.Get("content.parts")
	if !parts.IsArray() {
		return nil
	}
	var out []string
	for _, p := range parts.Array() {
		if t := nonEmptyString(p.Get("text")); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func nonEmptyString(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}

// debugDump compacts raw JSON and keeps at most debugDumpLimit characters.
func debugDump(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err == nil {
		raw = buf.String()
	}
	runes := []rune(raw)
	if len(runes) > debugDumpLimit {
		runes = runes[:debugDumpLimit]
	}
	return string(runes)
}
