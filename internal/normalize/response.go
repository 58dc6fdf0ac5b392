// Package normalize turns raw extraction-backend responses into stakeholder
// records, tolerating fenced, partial and malformed JSON.
package normalize

import (
	"fmt"
	"strings"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

// errorPrefixLen bounds how much of an unparseable response is quoted in
// its error entry.
const errorPrefixLen = 200

// Response is the classified outcome of parsing one chunk response. It is
// one of Parsed, Unrecognized or Empty.
type Response interface {
	ChunkIndex() int
	isResponse()
}

// Parsed holds the stakeholders recovered from a structured response. A
// structured response without a stakeholders field yields zero records.
// Errors describes fenced blocks of the same response that did not decode.
type Parsed struct {
	Index        int
	Stakeholders []model.Stakeholder
	Errors       []string
}

// Unrecognized holds a response that no parse strategy could decode.
type Unrecognized struct {
	Index int
	Raw   string
}

// Empty marks a blank response, including one substituted for a failed
// backend call.
type Empty struct {
	Index int
}

func (p Parsed) ChunkIndex() int       { return p.Index }
func (u Unrecognized) ChunkIndex() int { return u.Index }
func (e Empty) ChunkIndex() int        { return e.Index }

func (Parsed) isResponse()       {}
func (Unrecognized) isResponse() {}
func (Empty) isResponse()        {}

// Error describes the response for the page's error list.
func (u Unrecognized) Error() string {
	raw := strings.TrimSpace(u.Raw)
	if r := []rune(raw); len(r) > errorPrefixLen {
		raw = string(r[:errorPrefixLen]) + "..."
	}
	return fmt.Sprintf("chunk %d: unexpected response format: %s", u.Index+1, raw)
}

const fence = "```"

// Parse classifies one raw response. Strategies run in order: fenced blocks,
// the whole text as JSON, then the span from the first '{' to the last '}'
// which covers surrounding prose.
func Parse(index int, raw string) Response {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Empty{Index: index}
	}

	if blocks := fencedBlocks(text); len(blocks) > 0 {
		p := Parsed{Index: index}
		ok := false
		for n, body := range blocks {
			s, err := decodeBatch(body)
			if err != nil {
				p.Errors = append(p.Errors, blockError(index, n, body))
				continue
			}
			p.Stakeholders = append(p.Stakeholders, s...)
			ok = true
		}
		if ok {
			return p
		}
	}

	if s, err := decodeBatch(text); err == nil {
		return Parsed{Index: index, Stakeholders: s}
	}

	if span := braceSpan(text); span != "" && span != text {
		if s, err := decodeBatch(span); err == nil {
			return Parsed{Index: index, Stakeholders: s}
		}
	}

	return Unrecognized{Index: index, Raw: raw}
}

// fencedBlocks splits text on fence markers and returns each segment that,
// after its language tag, opens a JSON object or array. Segments are decoded
// independently, so a truncated block cannot swallow the next one, and a
// block whose closing fence is missing still counts.
func fencedBlocks(text string) []string {
	parts := strings.Split(text, fence)
	if len(parts) < 2 {
		return nil
	}
	var blocks []string
	for _, part := range parts[1:] {
		body := strings.TrimSpace(stripLangTag(part))
		if body != "" && (body[0] == '{' || body[0] == '[') {
			blocks = append(blocks, body)
		}
	}
	return blocks
}

// stripLangTag drops a leading info string such as "json" up to the end of
// its line.
func stripLangTag(part string) string {
	if nl := strings.IndexByte(part, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(part[:nl]); tag != "" && !strings.ContainsAny(tag, "{[\"") {
			return part[nl+1:]
		}
	}
	part = strings.TrimLeft(part, " \t")
	return strings.TrimPrefix(strings.TrimPrefix(part, "json"), "JSON")
}

func blockError(index, n int, body string) string {
	if r := []rune(body); len(r) > errorPrefixLen {
		body = string(r[:errorPrefixLen]) + "..."
	}
	return fmt.Sprintf("chunk %d: fenced block %d: unexpected response format: %s", index+1, n+1, body)
}

// Merge folds classified responses into page-level details. Responses are
// taken in the given order; callers pass them in chunk index order.
// Stakeholders repeated across chunks are kept.
func Merge(responses []Response) model.StakeholderDetails {
	details := model.EmptyDetails()
	for _, r := range responses {
		switch r := r.(type) {
		case Parsed:
			details.Stakeholders = append(details.Stakeholders, r.Stakeholders...)
			details.Errors = append(details.Errors, r.Errors...)
		case Unrecognized:
			details.Errors = append(details.Errors, r.Error())
		case Empty:
		}
	}
	return details
}

// Normalize parses each raw response, using its position as the chunk index,
// and merges the results.
func Normalize(raws []string) model.StakeholderDetails {
	responses := make([]Response, len(raws))
	for i, raw := range raws {
		responses[i] = Parse(i, raw)
	}
	return Merge(responses)
}

// Unfence returns the body of the first fenced block in raw, or raw trimmed
// when there is none. Any fence language tag is dropped.
func Unfence(raw string) string {
	text := strings.TrimSpace(raw)
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	body := text[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[\"") {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(strings.TrimPrefix(body, "json"), "JSON")
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func braceSpan(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return ""
}
