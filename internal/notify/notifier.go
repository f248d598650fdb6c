package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/azellar/backend/internal/common"
	"github.com/azellar/backend/internal/obs"
)

// Flow and step labels used in errors, logs and metrics.
const (
	FlowContact    = "contact"
	FlowEnrollment = "enrollment"

	StepUserConfirmation       = "user_confirmation"
	StepAdminNotification      = "admin_notification"
	StepEnrollmentConfirmation = "enrollment_confirmation"
)

// SendError reports that a flow could not complete. Err keeps the provider
// detail for logs; it must not be echoed to API callers.
type SendError struct {
	Flow      string
	Step      string
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("%s/%s to %s: %v", e.Flow, e.Step, e.Recipient, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Config wires a Notifier.
type Config struct {
	Mail           common.EmailSender
	ContactFrom    string
	EnrollmentFrom string
	AdminInbox     string
	// SendTimeout bounds a whole flow. Caller cancellation is ignored.
	SendTimeout time.Duration
	Metrics     *obs.EmailMetrics
	Now         func() time.Time
}

// Notifier renders and dispatches the contact and enrollment emails.
type Notifier struct {
	mail           common.EmailSender
	contactFrom    string
	enrollmentFrom string
	adminInbox     string
	timeout        time.Duration
	metrics        *obs.EmailMetrics
	now            func() time.Time
	tracer         trace.Tracer
}

// NewNotifier validates cfg and returns a Notifier.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.Mail == nil {
		return nil, errors.New("notify: email sender is required")
	}
	for name, v := range map[string]string{
		"contact sender":    cfg.ContactFrom,
		"enrollment sender": cfg.EnrollmentFrom,
		"admin inbox":       cfg.AdminInbox,
	} {
		if strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("notify: %s is required", name)
		}
	}
	n := &Notifier{
		mail:           cfg.Mail,
		contactFrom:    cfg.ContactFrom,
		enrollmentFrom: cfg.EnrollmentFrom,
		adminInbox:     cfg.AdminInbox,
		timeout:        cfg.SendTimeout,
		metrics:        cfg.Metrics,
		now:            cfg.Now,
		tracer:         otel.Tracer("azellar/notify"),
	}
	if n.timeout <= 0 {
		n.timeout = 30 * time.Second
	}
	if n.now == nil {
		n.now = time.Now
	}
	return n, nil
}

// SendContact sends the confirmation to the submitter and then the
// notification to the admin inbox. The first failure aborts the flow; a
// confirmation that already went out is not recalled.
func (n *Notifier) SendContact(ctx context.Context, req ContactRequest) error {
	ctx, cancel := n.detach(ctx)
	defer cancel()
	ctx, span := n.tracer.Start(ctx, "notify.SendContact", trace.WithAttributes(attribute.String("inquiry_type", req.InquiryType)))
	defer span.End()

	confirmation, err := RenderContactConfirmation(req)
	if err != nil {
		return n.fail(span, &SendError{Flow: FlowContact, Step: StepUserConfirmation, Recipient: req.Email, Err: err})
	}
	notification, err := RenderContactNotification(req, n.now())
	if err != nil {
		return n.fail(span, &SendError{Flow: FlowContact, Step: StepAdminNotification, Recipient: n.adminInbox, Err: err})
	}

	if err := n.send(ctx, FlowContact, StepUserConfirmation, n.contactFrom, req.Email, confirmation); err != nil {
		return n.fail(span, err)
	}
	if err := n.send(ctx, FlowContact, StepAdminNotification, n.contactFrom, n.adminInbox, notification); err != nil {
		return n.fail(span, err)
	}
	return nil
}

// SendEnrollment sends the single enrollment confirmation to the student.
func (n *Notifier) SendEnrollment(ctx context.Context, req EnrollmentRequest) error {
	ctx, cancel := n.detach(ctx)
	defer cancel()
	ctx, span := n.tracer.Start(ctx, "notify.SendEnrollment", trace.WithAttributes(attribute.String("course", req.CourseName)))
	defer span.End()

	doc, err := RenderEnrollmentConfirmation(req)
	if err != nil {
		return n.fail(span, &SendError{Flow: FlowEnrollment, Step: StepEnrollmentConfirmation, Recipient: req.StudentEmail, Err: err})
	}
	if err := n.send(ctx, FlowEnrollment, StepEnrollmentConfirmation, n.enrollmentFrom, req.StudentEmail, doc); err != nil {
		return n.fail(span, err)
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, flow, step, from, to string, doc Document) error {
	start := time.Now()
	err := n.mail.Send(ctx, common.Email{From: from, To: to, Subject: doc.Subject, HTML: doc.HTML})
	n.metrics.ObserveSend(flow, step, time.Since(start), err)
	if err != nil {
		return &SendError{Flow: flow, Step: step, Recipient: to, Err: err}
	}
	return nil
}

// detach keeps provider calls running when the HTTP caller goes away.
func (n *Notifier) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
}

func (n *Notifier) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "send failed")
	return err
}
