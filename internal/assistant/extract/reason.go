// internal/assistant/extract/reason.go
package extract

import (
	"context"
	"fmt"
	"strings"

	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/nlp"
)

const buyKeyword = "buy"

// reasonCategories is the fixed zero-shot label set; the top-ranked label
// is appended to the formatted reason.
var reasonCategories = []string{"purchase", "equipment", "supplies", "services", "maintenance"}

// reasonDelimiters end the candidate span; whichever occurs earliest wins.
var reasonDelimiters = []string{"and", "the amount", "i need"}

// ReasonExtractor takes the text after "buy" up to the first delimiter,
// classifies it, and formats a reason sentence. Classification failure
// yields absent; there is no lexical-only fallback.
type ReasonExtractor struct {
	nlp    nlp.ModelPort
	logger logger.Logger
}

func NewReasonExtractor(port nlp.ModelPort, log logger.Logger) *ReasonExtractor {
	return &ReasonExtractor{
		nlp:    port,
		logger: log.WithFields(map[string]interface{}{"extractor": "reason"}),
	}
}

func (e *ReasonExtractor) Extract(ctx context.Context, text string) (string, bool) {
	idx := strings.Index(strings.ToLower(text), buyKeyword)
	if idx < 0 {
		return "", false
	}

	span := text[idx+len(buyKeyword):]
	spanLower := strings.ToLower(span)

	cut := len(span)
	for _, delim := range reasonDelimiters {
		if i := strings.Index(spanLower, delim); i >= 0 && i < cut {
			cut = i
		}
	}
	span = strings.TrimSpace(span[:cut])

	labels, err := e.nlp.ZeroShot(ctx, span, reasonCategories)
	if err != nil || len(labels) == 0 {
		if err != nil {
			e.logger.Debug("zero-shot unavailable, slot degraded to absent", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return "", false
	}

	return fmt.Sprintf("buy %s for the project (%s)", span, labels[0]), true
}
