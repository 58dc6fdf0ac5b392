package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/llm"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/normalize"
)

// ErrNoQueries is returned when the backend response holds no usable query.
var ErrNoQueries = eris.New("pipeline: no queries generated")

const queryPrompt = `You are an expert research assistant.
Given the following project description, generate %d *specific* search queries
that could be used to find stakeholders (people, organizations, agencies, NGOs, companies)
interested in this project.

Project description:
%s

Return ONLY a valid JSON list of strings like:
["query 1", "query 2", ...]`

// QueryPrompt renders the query-generation instruction.
func QueryPrompt(projectText string, n int) string {
	return fmt.Sprintf(queryPrompt, max(n, 1), strings.TrimSpace(projectText))
}

// GenerateQueries asks the backend for n search queries describing who might
// care about the project.
func GenerateQueries(ctx context.Context, gen llm.Generator, projectText string, n int) ([]string, error) {
	raw, err := gen.Generate(ctx, QueryPrompt(projectText, n))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: generate queries")
	}
	queries := ParseQueries(raw)
	if len(queries) == 0 {
		zap.L().Warn("pipeline: unusable query response", zap.String("raw", truncate(raw, 200)))
		return nil, ErrNoQueries
	}
	return queries, nil
}

// ParseQueries reads a JSON list of strings, fenced or bare. When the
// response is not such a list, quoted literals long enough to be queries are
// used instead. Duplicates are kept.
func ParseQueries(raw string) []string {
	body := normalize.Unfence(raw)
	if start, end := strings.Index(body, "["), strings.LastIndex(body, "]"); start >= 0 && end > start {
		var list []string
		if err := json.Unmarshal([]byte(body[start:end+1]), &list); err == nil {
			out := make([]string, 0, len(list))
			for _, q := range list {
				if q = strings.TrimSpace(q); q != "" {
					out = append(out, q)
				}
			}
			return out
		}
	}
	return normalize.QuotedFragments(raw, normalize.DefaultFragmentMinLen)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
