package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/azellar/backend/internal/common"
	"github.com/azellar/backend/internal/notify"
	"github.com/azellar/backend/internal/obs"
)

// scriptedSender records messages and fails the calls listed in failOn (1-based).
type scriptedSender struct {
	mu     sync.Mutex
	failOn map[int]error
	calls  int
	sent   []common.Email
	ctxErr []error
}

func (s *scriptedSender) Send(ctx context.Context, msg common.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.ctxErr = append(s.ctxErr, ctx.Err())
	if err := s.failOn[s.calls]; err != nil {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newNotifier(t *testing.T, sender common.EmailSender, reg prometheus.Registerer) *notify.Notifier {
	t.Helper()
	n, err := notify.NewNotifier(notify.Config{
		Mail:           sender,
		ContactFrom:    "onboarding@resend.dev",
		EnrollmentFrom: "courses@azellar.com",
		AdminInbox:     "delivered@resend.dev",
		SendTimeout:    time.Second,
		Metrics:        obs.NewEmailMetrics("test", reg),
		Now:            func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	require.NoError(t, err)
	return n
}

var contactReq = notify.ContactRequest{
	Name:        "Test User",
	Email:       "valid@test-domain",
	Message:     "hi",
	InquiryType: "general",
}

func TestSendContactSendsConfirmationThenNotification(t *testing.T) {
	sender := &common.InMemoryEmail{}
	n := newNotifier(t, sender, prometheus.NewRegistry())

	require.NoError(t, n.SendContact(context.Background(), contactReq))

	msgs := sender.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "valid@test-domain", msgs[0].To)
	require.Equal(t, "onboarding@resend.dev", msgs[0].From)
	require.Equal(t, "Thank you for contacting Azellar", msgs[0].Subject)
	require.Equal(t, "delivered@resend.dev", msgs[1].To)
	require.Equal(t, "onboarding@resend.dev", msgs[1].From)
	require.Equal(t, "New Contact Form Submission - general", msgs[1].Subject)
	require.Contains(t, msgs[1].HTML, "2025-01-02 03:04:05")
}

func TestSendContactFailsOnFirstSend(t *testing.T) {
	providerErr := errors.New("validation_error: example.com domain is not allowed")
	sender := &scriptedSender{failOn: map[int]error{1: providerErr}}
	reg := prometheus.NewRegistry()
	n := newNotifier(t, sender, reg)

	err := n.SendContact(context.Background(), contactReq)

	var sendErr *notify.SendError
	require.ErrorAs(t, err, &sendErr)
	require.Equal(t, notify.FlowContact, sendErr.Flow)
	require.Equal(t, notify.StepUserConfirmation, sendErr.Step)
	require.ErrorIs(t, err, providerErr)
	require.Equal(t, 1, sender.calls)
	require.Empty(t, sender.sent)
}

func TestSendContactFailsOnSecondSendWithoutRecall(t *testing.T) {
	sender := &scriptedSender{failOn: map[int]error{2: errors.New("rate limited")}}
	n := newNotifier(t, sender, prometheus.NewRegistry())

	err := n.SendContact(context.Background(), contactReq)

	var sendErr *notify.SendError
	require.ErrorAs(t, err, &sendErr)
	require.Equal(t, notify.StepAdminNotification, sendErr.Step)
	require.Equal(t, "delivered@resend.dev", sendErr.Recipient)
	require.Len(t, sender.sent, 1)
	require.Equal(t, "valid@test-domain", sender.sent[0].To)
}

func TestSendEnrollmentUsesCourseSender(t *testing.T) {
	sender := &common.InMemoryEmail{}
	reg := prometheus.NewRegistry()
	n := newNotifier(t, sender, reg)

	err := n.SendEnrollment(context.Background(), notify.EnrollmentRequest{
		StudentName:   "John Doe",
		StudentEmail:  "valid@test-domain",
		CourseName:    "Intro",
		CourseDetails: notify.CourseDetails{},
	})
	require.NoError(t, err)

	msgs := sender.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "courses@azellar.com", msgs[0].From)
	require.Equal(t, "valid@test-domain", msgs[0].To)
	require.Contains(t, msgs[0].HTML, "TBD")

	metrics := obs.NewEmailMetrics("test", reg)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.SendsTotal.WithLabelValues(notify.FlowEnrollment, notify.StepEnrollmentConfirmation, "ok")))
}

func TestSendIgnoresCallerCancellation(t *testing.T) {
	sender := &scriptedSender{}
	n := newNotifier(t, sender, prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, n.SendContact(ctx, contactReq))
	require.Equal(t, []error{nil, nil}, sender.ctxErr)
}

func TestNewNotifierRequiresSenderAndAddresses(t *testing.T) {
	_, err := notify.NewNotifier(notify.Config{})
	require.Error(t, err)

	_, err = notify.NewNotifier(notify.Config{Mail: &common.InMemoryEmail{}, ContactFrom: "a@b", EnrollmentFrom: "c@d"})
	require.ErrorContains(t, err, "admin inbox")
}
