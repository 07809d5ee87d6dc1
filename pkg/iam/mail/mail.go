// Package mail bridges the invitation flow to the job queue and the email
// provider: the request path enqueues, the worker renders and sends.
package mail

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/tenantry/pkg/iam/invitation"
	"github.com/Abraxas-365/tenantry/pkg/jobx"
	"github.com/Abraxas-365/tenantry/pkg/kernel"
)

// Job types handled by the mail worker.
const (
	JobInvitationEmail = "invitation_email"
	JobWelcomeEmail    = "welcome_email"

	Queue = "mail"
)

// InvitationEmailPayload is the payload of an invitation email job.
type InvitationEmailPayload struct {
	Email     string          `json:"email"`
	Role      string          `json:"role"`
	TenantID  kernel.TenantID `json:"tenant_id"`
	AcceptURL string          `json:"accept_url"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// WelcomeEmailPayload is the payload of a welcome email job.
type WelcomeEmailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// QueueMailer enqueues mail jobs instead of sending inline, so a slow or
// flaky provider never stalls an invitation request.
type QueueMailer struct {
	jobs jobx.JobEnqueuer
}

// NewQueueMailer creates a job-queue backed mailer.
func NewQueueMailer(jobs jobx.JobEnqueuer) *QueueMailer {
	return &QueueMailer{jobs: jobs}
}

// SendInvitation enqueues the invitation email.
func (m *QueueMailer) SendInvitation(ctx context.Context, inv invitation.Invitation, acceptURL string) error {
	payload, err := json.Marshal(InvitationEmailPayload{
		Email:     inv.Email,
		Role:      inv.Role,
		TenantID:  inv.TenantID,
		AcceptURL: acceptURL,
		ExpiresAt: inv.ExpiresAt,
	})
	if err != nil {
		return err
	}

	_, err = m.jobs.Enqueue(ctx, jobx.Job{
		Type:    JobInvitationEmail,
		Queue:   Queue,
		Payload: payload,
	})
	return err
}

// SendWelcome enqueues the welcome email.
func (m *QueueMailer) SendWelcome(ctx context.Context, email, name string) error {
	payload, err := json.Marshal(WelcomeEmailPayload{Email: email, Name: name})
	if err != nil {
		return err
	}

	_, err = m.jobs.Enqueue(ctx, jobx.Job{
		Type:    JobWelcomeEmail,
		Queue:   Queue,
		Payload: payload,
	})
	return err
}
