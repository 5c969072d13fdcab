package notifications

import (
	"context"
	"fmt"

	"fortyacres-backend/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Mailer sends one HTML email. BrevoClient is the production implementation.
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, html string) error
}

// Notifier emails investors and reviewers about account activity. Send
// failures are logged and never returned.
type Notifier struct {
	Mailer        Mailer
	ReviewerEmail string
}

func (n *Notifier) deliver(ctx context.Context, kind, to, name, subject, content string) {
	if n == nil || n.Mailer == nil || to == "" {
		return
	}
	if err := n.Mailer.Send(ctx, to, name, subject, EmailLayout(content)); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("notification email failed")
	}
}

func (n *Notifier) Welcome(ctx context.Context, user domain.User) {
	n.deliver(ctx, "welcome", user.Email, user.Fullname, "Welcome to 40 Acres", welcomeContent(user.Fullname))
}

func (n *Notifier) WithdrawalSubmitted(ctx context.Context, req domain.WithdrawalRequest, user domain.User) {
	n.deliver(ctx, "withdrawal_submitted", user.Email, user.Fullname,
		"We received your withdrawal request", submittedContent(req, user.Fullname))
	n.deliver(ctx, "withdrawal_review", n.reviewer(), "",
		fmt.Sprintf("Withdrawal request awaiting review (%s)", money(req.RequestedAmount)), reviewQueueContent(req, user))
}

func (n *Notifier) WithdrawalReviewed(ctx context.Context, req domain.WithdrawalRequest, user domain.User) {
	subject := "Your withdrawal request was approved"
	if req.Status == domain.WithdrawalStatusRejected {
		subject = "Your withdrawal request was declined"
	}
	n.deliver(ctx, "withdrawal_reviewed", user.Email, user.Fullname, subject, reviewedContent(req, user.Fullname))
}

func (n *Notifier) WithdrawalCompleted(ctx context.Context, req domain.WithdrawalRequest, user domain.User) {
	n.deliver(ctx, "withdrawal_completed", user.Email, user.Fullname,
		"Your withdrawal has been paid out", completedContent(req, user.Fullname))
}

func (n *Notifier) reviewer() string {
	if n == nil {
		return ""
	}
	return n.ReviewerEmail
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func firstNameOr(name string) string {
	if name == "" {
		return "there"
	}
	return EscapeHTML(name)
}

func breakdownTable(req domain.WithdrawalRequest) string {
	penalty := ""
	if req.PenaltyAmount.IsPositive() {
		penalty = fmt.Sprintf(`<tr><td>Early withdrawal penalty</td><td align="right">-%s</td></tr>`, money(req.PenaltyAmount))
	}
	return fmt.Sprintf(`
    <table role="presentation" width="100%%">
      <tr><td>Requested amount</td><td align="right">%s</td></tr>
      <tr><td>Processing fee</td><td align="right">-%s</td></tr>
      %s
      <tr><td><strong>You receive</strong></td><td align="right"><strong>%s</strong></td></tr>
    </table>`, money(req.RequestedAmount), money(req.ProcessingFee), penalty, money(req.NetAmount))
}

func welcomeContent(name string) string {
	return fmt.Sprintf(`
    <h1>Welcome, %s!</h1>
    <p>Your 40 Acres account is ready. Browse the properties that are raising now and start building ownership one share at a time.</p>
    <p>If you did not sign up for this account, please contact our support team immediately.</p>
`, firstNameOr(name))
}

func submittedContent(req domain.WithdrawalRequest, name string) string {
	return fmt.Sprintf(`
    <h1>Withdrawal request received</h1>
    <p>Hi %s, we received your %s withdrawal request. Our team reviews requests within two business days.</p>
    %s
`, firstNameOr(name), EscapeHTML(string(req.WithdrawalType)), breakdownTable(req))
}

func reviewQueueContent(req domain.WithdrawalRequest, user domain.User) string {
	return fmt.Sprintf(`
    <h1>New withdrawal request</h1>
    <p>%s (%s) submitted a %s withdrawal. Request ID: %s</p>
    %s
`, EscapeHTML(user.Fullname), EscapeHTML(user.Email), EscapeHTML(string(req.WithdrawalType)), req.RequestID, breakdownTable(req))
}

func reviewedContent(req domain.WithdrawalRequest, name string) string {
	if req.Status == domain.WithdrawalStatusRejected {
		note := ""
		if req.ReviewNote != "" {
			note = fmt.Sprintf("<p><strong>Reviewer note:</strong> %s</p>", EscapeHTML(req.ReviewNote))
		}
		return fmt.Sprintf(`
    <h1>Withdrawal request declined</h1>
    <p>Hi %s, your withdrawal request for %s was not approved. Your balance has not changed.</p>
    %s
`, firstNameOr(name), money(req.RequestedAmount), note)
	}
	return fmt.Sprintf(`
    <h1>Withdrawal request approved</h1>
    <p>Hi %s, your withdrawal request has been approved and is queued for payout.</p>
    %s
`, firstNameOr(name), breakdownTable(req))
}

func completedContent(req domain.WithdrawalRequest, name string) string {
	return fmt.Sprintf(`
    <h1>Withdrawal paid out</h1>
    <p>Hi %s, %s is on its way to your bank account.</p>
    %s
`, firstNameOr(name), money(req.NetAmount), breakdownTable(req))
}
