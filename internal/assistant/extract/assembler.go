// internal/assistant/extract/assembler.go
package extract

import (
	"context"

	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/common/metrics"
	"erp-assistant/internal/models"
	"erp-assistant/internal/nlp"
)

// Assembler runs the three extractors over an utterance, scores each raw
// result, and keeps only values that clear the confidence gate. Given the
// same text and the same model responses it always yields an equal request.
type Assembler struct {
	project *ProjectExtractor
	amount  *AmountExtractor
	reason  *ReasonExtractor
	logger  logger.Logger
}

func NewAssembler(port nlp.ModelPort, log logger.Logger) *Assembler {
	return &Assembler{
		project: NewProjectExtractor(port, log),
		amount:  NewAmountExtractor(port, log),
		reason:  NewReasonExtractor(port, log),
		logger:  log.WithFields(map[string]interface{}{"component": "assembler"}),
	}
}

func (a *Assembler) Assemble(ctx context.Context, text string) models.MoneyRequest {
	var req models.MoneyRequest

	projectID, ok := a.project.Extract(ctx, text)
	if score := ScoreProjectID(projectID, ok); score > AcceptThreshold {
		req.ProjectID = &projectID
		metrics.ExtractionResults.WithLabelValues("project_id", "accepted").Inc()
	} else {
		metrics.ExtractionResults.WithLabelValues("project_id", "absent").Inc()
	}

	amount, ok := a.amount.Extract(ctx, text)
	if score := ScoreAmount(amount, ok); score > AcceptThreshold {
		req.Amount = &amount
		metrics.ExtractionResults.WithLabelValues("amount", "accepted").Inc()
	} else {
		metrics.ExtractionResults.WithLabelValues("amount", "absent").Inc()
	}

	reason, ok := a.reason.Extract(ctx, text)
	if score := ScoreReason(reason, ok); score > AcceptThreshold {
		req.Reason = &reason
		metrics.ExtractionResults.WithLabelValues("reason", "accepted").Inc()
	} else {
		metrics.ExtractionResults.WithLabelValues("reason", "absent").Inc()
	}

	a.logger.Debug("assembled request", map[string]interface{}{
		"hasProject": req.ProjectID != nil,
		"hasAmount":  req.Amount != nil,
		"hasReason":  req.Reason != nil,
	})

	return req
}
