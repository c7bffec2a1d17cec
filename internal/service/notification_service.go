package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-transcript-api/pkg/mailer"
)

// NotificationService emails operators about transcript runs that gave up.
type NotificationService struct {
	sender     mailer.Sender
	recipients []string
	logger     *zap.Logger
}

// NewNotificationService constructs NotificationService. Without recipients
// every notification is dropped.
func NewNotificationService(sender mailer.Sender, recipients []string, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{sender: sender, recipients: recipients, logger: logger}
}

// TranscriptFailed reports a calculation that will not be retried.
func (n *NotificationService) TranscriptFailed(ctx context.Context, studentID, initiatedBy string, attempts int, cause error) error {
	if n == nil || n.sender == nil || len(n.recipients) == 0 {
		return nil
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Transcript calculation for student %s failed after %d attempt(s).\n", studentID, attempts)
	if initiatedBy != "" {
		fmt.Fprintf(&body, "Requested by: %s\n", initiatedBy)
	}
	if cause != nil {
		fmt.Fprintf(&body, "Error: %v\n", cause)
	}
	err := n.sender.Send(ctx, mailer.Message{
		To:      n.recipients,
		Subject: fmt.Sprintf("Transcript calculation failed for %s", studentID),
		Text:    body.String(),
	})
	if err != nil {
		n.logger.Warn("failure notification not sent", zap.String("student_id", studentID), zap.Error(err))
	}
	return err
}
