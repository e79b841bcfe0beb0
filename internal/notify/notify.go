// internal/notify/notify.go
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/config"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/errors"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
)

// EmailSender sends plain text email. Satisfied by the SES client.
type EmailSender interface {
	SendPlainEmail(ctx context.Context, from, to, subject, body string) error
}

// AlertPublisher raises operational alerts. Satisfied by the SNS client.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, topicARN, subject, message string) error
}

// Notifier sends supplier emails and operational alerts. Either channel may
// be disabled in config; a disabled channel is a silent no-op.
type Notifier struct {
	email  EmailSender
	alerts AlertPublisher
	cfg    config.IntegrationConfig
	from   string
	logger logger.Logger
}

func NewNotifier(email EmailSender, alerts AlertPublisher, cfg config.IntegrationConfig, fromEmail string, log logger.Logger) *Notifier {
	return &Notifier{
		email:  email,
		alerts: alerts,
		cfg:    cfg,
		from:   fromEmail,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// SendSubmissionComplete confirms to the supplier that a service was marked
// complete.
func (n *Notifier) SendSubmissionComplete(ctx context.Context, to, frameworkName, serviceName string) error {
	if !n.cfg.AWS.SES.Enabled || n.email == nil {
		return nil
	}
	subject := fmt.Sprintf("Your %s service is marked as complete", frameworkName)
	body := fmt.Sprintf(
		"Your service %q has been marked as complete for %s.\n\n"+
			"You can still edit it until the framework closes for applications.\n",
		serviceName, frameworkName,
	)
	if err := n.email.SendPlainEmail(ctx, n.from, to, subject, body); err != nil {
		n.logger.Error("completion email failed", map[string]interface{}{
			"to":    to,
			"error": err.Error(),
		})
		return errors.NewNotificationSendFailedError("email", err)
	}
	return nil
}

// EscalateSchemaDrift alerts operators that the data API rejected fields the
// loaded manifests do not know about. This is a deploy-ordering defect, not
// a supplier mistake, so it goes to the alert topic rather than the page.
func (n *Notifier) EscalateSchemaDrift(ctx context.Context, frameworkSlug, sectionID string, keys []string) error {
	if !n.cfg.AWS.SNS.Enabled || n.alerts == nil {
		return nil
	}
	subject := "Content schema drift detected"
	message := fmt.Sprintf(
		"Framework %s, section %s: validation errors for unknown field(s): %s",
		frameworkSlug, sectionID, strings.Join(keys, ", "),
	)
	if err := n.alerts.PublishAlert(ctx, n.cfg.AWS.SNS.AlertTopicARN, subject, message); err != nil {
		n.logger.Error("drift alert failed", map[string]interface{}{
			"framework": frameworkSlug,
			"section":   sectionID,
			"error":     err.Error(),
		})
		return errors.NewNotificationSendFailedError("alerts", err)
	}
	n.logger.Warn("schema drift escalated", map[string]interface{}{
		"framework": frameworkSlug,
		"section":   sectionID,
		"fields":    strings.Join(keys, ", "),
	})
	return nil
}
