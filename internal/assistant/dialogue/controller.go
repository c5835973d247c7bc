// internal/assistant/dialogue/controller.go
package dialogue

import (
	"strings"

	"erp-assistant/internal/models"
)

// Follow-up prompts, one per slot, asked in fixed priority order.
const (
	PromptProject = "Can you provide me the project name you are trying to request money for?"
	PromptAmount  = "Can you specify the amount you need in riyals?"
	PromptReason  = "Can you provide the reason for this money request?"
)

// TurnResult is the outcome of evaluating one dialogue turn.
type TurnResult struct {
	Request      models.MoneyRequest
	MissingSlot  Slot
	Prompt       string
	Confirmation string
	Complete     bool
}

// Evaluate inspects an assembled request and decides the next dialogue
// step: the first missing slot (project before amount before reason) wins
// and maps to its fixed prompt; a complete request yields the confirmation
// summary instead.
func Evaluate(req models.MoneyRequest) TurnResult {
	result := TurnResult{Request: req}

	switch {
	case req.ProjectID == nil:
		result.MissingSlot = SlotProject
		result.Prompt = PromptProject
	case req.Amount == nil:
		result.MissingSlot = SlotAmount
		result.Prompt = PromptAmount
	case req.Reason == nil:
		result.MissingSlot = SlotReason
		result.Prompt = PromptReason
	default:
		result.MissingSlot = SlotNone
		result.Complete = true
		result.Confirmation = FormatConfirmation(req)
	}
	return result
}

// Merge folds a follow-up fragment into the accumulated text so the
// extractors can find the answered slot on the next full pass. Each slot
// splices the fragment into the lexical shape its extractor looks for.
func Merge(accumulated, fragment string, pending Slot) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return accumulated
	}

	switch pending {
	case SlotProject:
		idx := indexFold(accumulated, "project")
		if idx < 0 {
			return accumulated + " project " + fragment
		}
		// Splice the answer right after the first "project" keyword.
		end := idx + len("project")
		return accumulated[:end] + " " + fragment + accumulated[end:]
	case SlotAmount:
		return accumulated + " " + fragment + " riyals"
	case SlotReason:
		return accumulated + " to " + fragment
	default:
		return accumulated
	}
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}
