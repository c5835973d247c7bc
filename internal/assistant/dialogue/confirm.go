// internal/assistant/dialogue/confirm.go
package dialogue

import (
	"fmt"
	"strings"

	"erp-assistant/internal/models"
)

// FormatConfirmation renders the read-back summary of a complete request.
// The wording is part of the conversational contract; clients match on it.
func FormatConfirmation(req models.MoneyRequest) string {
	var b strings.Builder

	b.WriteString("Please confirm the following money request:\n")
	if req.ProjectID != nil {
		fmt.Fprintf(&b, "project: %s\n", *req.ProjectID)
	}
	if req.Amount != nil {
		fmt.Fprintf(&b, "amount: %g riyals\n", *req.Amount)
	}
	if req.Reason != nil {
		fmt.Fprintf(&b, "reason: %s\n", *req.Reason)
	}
	b.WriteString("Is this correct? (yes/no)")

	return b.String()
}
