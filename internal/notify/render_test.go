package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderContactConfirmation(t *testing.T) {
	doc, err := RenderContactConfirmation(ContactRequest{
		Name:        "Test User",
		Email:       "delivered@resend.dev",
		Message:     "hi there",
		InquiryType: "general",
	})
	require.NoError(t, err)
	require.Equal(t, "Thank you for contacting Azellar", doc.Subject)
	require.Contains(t, doc.HTML, "Dear Test User,")
	require.Contains(t, doc.HTML, "<strong>general</strong>")
	require.Contains(t, doc.HTML, "hi there")
	require.True(t, strings.HasPrefix(doc.HTML, "<!DOCTYPE html>"))
}

func TestRenderContactNotificationStampsTime(t *testing.T) {
	at := time.Date(2025, 7, 9, 14, 3, 5, 0, time.UTC)
	doc, err := RenderContactNotification(ContactRequest{
		Name:        "Test User",
		Email:       "user@test-domain",
		Message:     "hello",
		InquiryType: "training",
	}, at)
	require.NoError(t, err)
	require.Equal(t, "New Contact Form Submission - training", doc.Subject)
	require.Contains(t, doc.HTML, "<strong>Date:</strong> 2025-07-09 14:03:05")
	require.Contains(t, doc.HTML, "<strong>Email:</strong> user@test-domain")
}

func TestRenderEscapesSubmittedMarkup(t *testing.T) {
	doc, err := RenderContactConfirmation(ContactRequest{Name: `<script>alert(1)</script>`, Message: "a & b"})
	require.NoError(t, err)
	require.NotContains(t, doc.HTML, "<script>")
	require.Contains(t, doc.HTML, "&lt;script&gt;")
	require.Contains(t, doc.HTML, "a &amp; b")
}

func TestRenderEnrollmentUsesPlaceholders(t *testing.T) {
	doc, err := RenderEnrollmentConfirmation(EnrollmentRequest{
		StudentName:   "John Doe",
		StudentEmail:  "valid@test-domain",
		CourseName:    "Intro",
		CourseDetails: CourseDetails{},
	})
	require.NoError(t, err)
	require.Equal(t, "Enrollment Confirmation - Intro", doc.Subject)
	require.Contains(t, doc.HTML, "<strong>Duration:</strong> TBD")
	require.Contains(t, doc.HTML, "<strong>Instructor:</strong> TBD")
	require.Contains(t, doc.HTML, "<strong>Start Date:</strong> TBD")
}

func TestRenderEnrollmentWithDetails(t *testing.T) {
	doc, err := RenderEnrollmentConfirmation(EnrollmentRequest{
		StudentName: "John Doe",
		CourseName:  "Database Fundamentals",
		CourseDetails: CourseDetails{
			"duration":   "2 days",
			"instructor": "John Smith",
		},
	})
	require.NoError(t, err)
	require.Contains(t, doc.HTML, "<strong>Duration:</strong> 2 days")
	require.Contains(t, doc.HTML, "<strong>Instructor:</strong> John Smith")
	require.Contains(t, doc.HTML, "<strong>Start Date:</strong> TBD")
}

func TestCourseDetailsField(t *testing.T) {
	details := CourseDetails{"duration": 3.0, "instructor": nil, "start_date": "2024-02-15", "weeks": true}
	require.Equal(t, "3", details.Duration())
	require.Equal(t, Placeholder, details.Instructor())
	require.Equal(t, "2024-02-15", details.StartDate())
	require.Equal(t, "true", details.Field("weeks"))

	var empty CourseDetails
	require.Equal(t, Placeholder, empty.Duration())
}
