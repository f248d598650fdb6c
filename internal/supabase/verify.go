package supabase

import (
	"context"
	"net/url"
)

// CoreTables back the public site.
var CoreTables = []string{"profiles", "courses", "enrollments", "contact_submissions"}

// SupportTables back the client support portal.
var SupportTables = []string{"companies", "support_tickets", "ticket_replies", "ticket_attachments", "public_support_inquiries"}

// Course is the listing projection used by Verify.
type Course struct {
	ID          any     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Instructor  string  `json:"instructor"`
	Price       float64 `json:"price"`
}

// TableStatus is the probe result for one table.
type TableStatus struct {
	Name   string
	Exists bool
	Err    error
}

// Report collects everything Verify learned about the project.
type Report struct {
	PingErr    error
	Tables     []TableStatus
	Listed     []string
	ListErr    error
	Courses    []Course
	CoursesErr error
}

// OK is true when the API answered, every probed table exists and the
// course listing could be read.
func (r Report) OK() bool {
	if r.PingErr != nil || r.CoursesErr != nil {
		return false
	}
	for _, t := range r.Tables {
		if !t.Exists {
			return false
		}
	}
	return true
}

// Missing lists the tables PostgREST reported as absent. Tables whose check
// failed are not included.
func (r Report) Missing() []string {
	var out []string
	for _, t := range r.Tables {
		if !t.Exists && t.Err == nil {
			out = append(out, t.Name)
		}
	}
	return out
}

// Verify pings the project, probes tables and reads a page of courses. When
// the ping fails nothing else is attempted.
func Verify(ctx context.Context, c *Client, tables []string) Report {
	var rep Report
	if rep.PingErr = c.Ping(ctx); rep.PingErr != nil {
		return rep
	}
	rep.Listed, rep.ListErr = c.ListTables(ctx)
	for _, name := range tables {
		exists, err := c.TableExists(ctx, name)
		rep.Tables = append(rep.Tables, TableStatus{Name: name, Exists: exists, Err: err})
	}
	rep.CoursesErr = c.Select(ctx, "courses", url.Values{
		"select": {"id,title,description,instructor,price"},
		"limit":  {"10"},
	}, &rep.Courses)
	return rep
}
