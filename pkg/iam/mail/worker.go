package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abraxas-365/tenantry/pkg/jobx"
	"github.com/Abraxas-365/tenantry/pkg/notifx"
)

const invitationTemplate = `
<html>
  <body>
    <h2>You have been invited</h2>
    <p>You were invited to join as <strong>{{.Role}}</strong>.</p>
    <p><a href="{{.AcceptURL}}">Accept your invitation</a></p>
    <p>The invitation expires on {{.ExpiresAt.Format "Jan 2, 2006"}}.</p>
  </body>
</html>`

const welcomeTemplate = `
<html>
  <body>
    <h2>Welcome, {{.Name}}!</h2>
    <p>Your account is ready. You can sign in at any time.</p>
  </body>
</html>`

// Worker sends the mail jobs the request path enqueued.
type Worker struct {
	notifier *notifx.Client
	from     string
}

// NewWorker creates a mail worker and registers its templates.
func NewWorker(notifier *notifx.Client, from string) (*Worker, error) {
	if err := notifier.RegisterTemplate(JobInvitationEmail, invitationTemplate); err != nil {
		return nil, err
	}
	if err := notifier.RegisterTemplate(JobWelcomeEmail, welcomeTemplate); err != nil {
		return nil, err
	}
	return &Worker{notifier: notifier, from: from}, nil
}

// Register attaches the mail handlers to a jobx client.
func (w *Worker) Register(client *jobx.Client) {
	client.Register(JobInvitationEmail, w.handleInvitation)
	client.Register(JobWelcomeEmail, w.handleWelcome)
}

func (w *Worker) handleInvitation(ctx context.Context, job *jobx.JobInfo) error {
	var payload InvitationEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invitation email payload: %w", err)
	}

	return w.notifier.SendTemplatedEmail(ctx, JobInvitationEmail, payload, notifx.EmailMessage{
		From:    w.from,
		To:      []string{payload.Email},
		Subject: "You have been invited",
	})
}

func (w *Worker) handleWelcome(ctx context.Context, job *jobx.JobInfo) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("welcome email payload: %w", err)
	}

	return w.notifier.SendTemplatedEmail(ctx, JobWelcomeEmail, payload, notifx.EmailMessage{
		From:    w.from,
		To:      []string{payload.Email},
		Subject: "Welcome aboard",
	})
}
