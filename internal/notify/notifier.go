// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"

	"erp-assistant/internal/common/config"
	stderrors "erp-assistant/internal/common/errors"
	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/models"
)

// EmailSender is implemented by the SES wrapper.
type EmailSender interface {
	SendPlainEmail(ctx context.Context, from, to, subject, body string) error
}

// SMSSender is implemented by the SNS wrapper.
type SMSSender interface {
	PublishSMS(ctx context.Context, phone, message string) error
}

// ApproverNotifier tells the configured approver about new pending
// requests over whichever channels are enabled. A channel failure is
// logged and does not block the other channel.
type ApproverNotifier struct {
	email  EmailSender
	sms    SMSSender
	cfg    config.NotificationConfig
	logger logger.Logger
}

func NewApproverNotifier(email EmailSender, sms SMSSender, cfg config.NotificationConfig, log logger.Logger) *ApproverNotifier {
	return &ApproverNotifier{email: email, sms: sms, cfg: cfg, logger: log}
}

func (n *ApproverNotifier) NotifyApprover(ctx context.Context, record *models.RequestRecord) error {
	var lastErr error

	if n.cfg.Email.Enabled && n.email != nil {
		subject := fmt.Sprintf("Money request %s pending approval", record.ID)
		body := fmt.Sprintf(
			"A new money request is awaiting your approval.\n\nProject: %s\nAmount: %g riyals\nReason: %s\n",
			record.ProjectID, record.Amount, record.Reason)

		if err := n.email.SendPlainEmail(ctx, n.cfg.Email.FromEmail, n.cfg.Email.ApproverEmail, subject, body); err != nil {
			n.logger.WithError(err).WithFields(map[string]interface{}{
				"requestId": record.ID,
			}).Warn("approver email failed", nil)
			lastErr = err
		}
	}

	if n.cfg.SMS.Enabled && n.sms != nil {
		message := fmt.Sprintf("Money request for project %s (%g riyals) is pending approval.",
			record.ProjectID, record.Amount)

		if err := n.sms.PublishSMS(ctx, n.cfg.SMS.ApproverPhone, message); err != nil {
			n.logger.WithError(err).WithFields(map[string]interface{}{
				"requestId": record.ID,
			}).Warn("approver sms failed", nil)
			lastErr = err
		}
	}

	if lastErr != nil {
		return stderrors.NewNotificationSendFailedError(record.ID, lastErr)
	}
	return nil
}
