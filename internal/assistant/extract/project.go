// internal/assistant/extract/project.go
package extract

import (
	"context"
	"strings"

	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/nlp"
)

const projectKeyword = "project"

// ProjectExtractor pulls the project identifier out of an utterance. It
// looks at the text after the "project" keyword, preferring NER entities
// over lexical fallbacks. Any model failure degrades to absent.
type ProjectExtractor struct {
	nlp    nlp.ModelPort
	logger logger.Logger
}

func NewProjectExtractor(port nlp.ModelPort, log logger.Logger) *ProjectExtractor {
	return &ProjectExtractor{
		nlp:    port,
		logger: log.WithFields(map[string]interface{}{"extractor": "project"}),
	}
}

func (e *ProjectExtractor) Extract(ctx context.Context, text string) (string, bool) {
	idx := strings.Index(strings.ToLower(text), projectKeyword)
	if idx < 0 {
		return "", false
	}

	after := text[idx+len(projectKeyword):]
	tokens := strings.Fields(after)

	// "project to buy ..." / "project buy ..." means no project was stated.
	if len(tokens) > 0 {
		switch strings.ToLower(tokens[0]) {
		case "to", "buy":
			return "", false
		}
	}

	entities, err := e.nlp.NER(ctx, text)
	if err != nil {
		e.logger.Debug("ner unavailable, slot degraded to absent", map[string]interface{}{
			"error": err.Error(),
		})
		return "", false
	}

	for _, ent := range entities {
		switch ent.Label {
		case "ORG", "MISC", "NUM":
			if ent.Text != "" && strings.Contains(after, ent.Text) {
				return ent.Text, true
			}
		}
	}

	// Lexical fallback: first all-digit token after the keyword.
	for _, tok := range tokens {
		if isAllDigits(tok) {
			return tok, true
		}
	}

	// Last resort: the text between "project" and "to buy".
	candidate := after
	if cut := strings.Index(strings.ToLower(after), "to buy"); cut >= 0 {
		candidate = after[:cut]
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || strings.Contains(strings.ToLower(candidate), "amount") {
		return "", false
	}

	return candidate, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
