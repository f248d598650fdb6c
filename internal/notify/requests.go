package notify

import (
	"fmt"
	"strconv"
)

// Placeholder is rendered for course details the caller did not provide.
const Placeholder = "TBD"

// ContactRequest is a contact form submission.
type ContactRequest struct {
	Name        string
	Email       string
	Message     string
	InquiryType string
}

// EnrollmentRequest is a course enrollment confirmation request.
type EnrollmentRequest struct {
	StudentName   string
	StudentEmail  string
	CourseName    string
	CourseDetails CourseDetails
}

// CourseDetails carries loosely typed course metadata as sent by the frontend.
type CourseDetails map[string]any

// Field returns the textual value for key, or Placeholder when the key is
// absent or null.
func (d CourseDetails) Field(key string) string {
	v, ok := d[key]
	if !ok || v == nil {
		return Placeholder
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// Duration returns the course duration or Placeholder.
func (d CourseDetails) Duration() string { return d.Field("duration") }

// Instructor returns the instructor name or Placeholder.
func (d CourseDetails) Instructor() string { return d.Field("instructor") }

// StartDate returns the start date or Placeholder.
func (d CourseDetails) StartDate() string { return d.Field("start_date") }
