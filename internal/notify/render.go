package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// SubmittedAtLayout formats the server timestamp in admin notifications.
const SubmittedAtLayout = "2006-01-02 15:04:05"

var (
	contactConfirmationTmpl    = mustParse("contact_confirmation.html")
	contactNotificationTmpl    = mustParse("contact_notification.html")
	enrollmentConfirmationTmpl = mustParse("enrollment_confirmation.html")
)

func mustParse(name string) *template.Template {
	return template.Must(template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// Document is a rendered email ready to hand to a sender.
type Document struct {
	Subject string
	HTML    string
}

type view struct {
	Title       string
	Heading     string
	SubmittedAt string
	Data        any
}

// RenderContactConfirmation builds the thank-you email sent to the submitter.
func RenderContactConfirmation(req ContactRequest) (Document, error) {
	html, err := execute(contactConfirmationTmpl, view{
		Title:   "Thank You for Contacting Us",
		Heading: "Thank You for Contacting Azellar",
		Data:    req,
	})
	if err != nil {
		return Document{}, err
	}
	return Document{Subject: "Thank you for contacting Azellar", HTML: html}, nil
}

// RenderContactNotification builds the internal notification for a submission
// received at the given time.
func RenderContactNotification(req ContactRequest, at time.Time) (Document, error) {
	html, err := execute(contactNotificationTmpl, view{
		Title:       "New Contact Form Submission",
		Heading:     "New Contact Form Submission",
		SubmittedAt: at.Format(SubmittedAtLayout),
		Data:        req,
	})
	if err != nil {
		return Document{}, err
	}
	return Document{Subject: "New Contact Form Submission - " + req.InquiryType, HTML: html}, nil
}

// RenderEnrollmentConfirmation builds the enrollment email. Missing course
// details render as Placeholder.
func RenderEnrollmentConfirmation(req EnrollmentRequest) (Document, error) {
	html, err := execute(enrollmentConfirmationTmpl, view{
		Title:   "Course Enrollment Confirmation",
		Heading: "Welcome to Azellar Academy!",
		Data:    req,
	})
	if err != nil {
		return Document{}, err
	}
	return Document{Subject: "Enrollment Confirmation - " + req.CourseName, HTML: html}, nil
}

func execute(t *template.Template, v view) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
