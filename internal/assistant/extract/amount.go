// internal/assistant/extract/amount.go
package extract

import (
	"context"
	"strconv"
	"strings"

	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/nlp"
)

const amountQuestion = "How much money is requested?"

// AmountExtractor asks the extractive-QA capability for the requested
// amount and parses the digits out of the answer span. QA-only: there is
// no lexical fallback. Parse failures and non-positive values yield absent,
// never zero.
type AmountExtractor struct {
	nlp    nlp.ModelPort
	logger logger.Logger
}

func NewAmountExtractor(port nlp.ModelPort, log logger.Logger) *AmountExtractor {
	return &AmountExtractor{
		nlp:    port,
		logger: log.WithFields(map[string]interface{}{"extractor": "amount"}),
	}
}

func (e *AmountExtractor) Extract(ctx context.Context, text string) (float64, bool) {
	answer, err := e.nlp.ExtractiveQA(ctx, amountQuestion, text)
	if err != nil {
		e.logger.Debug("qa unavailable, slot degraded to absent", map[string]interface{}{
			"error": err.Error(),
		})
		return 0, false
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, answer)

	if digits == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(digits, 64)
	if err != nil || value <= 0 {
		return 0, false
	}

	return value, true
}
