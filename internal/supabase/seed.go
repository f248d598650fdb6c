package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
)

// CourseSeed is a row of the sample catalogue.
type CourseSeed struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Instructor   string  `json:"instructor"`
	Duration     string  `json:"duration"`
	Level        string  `json:"level"`
	Category     string  `json:"category"`
	Price        float64 `json:"price"`
	MaxStudents  int     `json:"max_students"`
	StartDate    string  `json:"start_date"`
	Requirements string  `json:"requirements"`
	Benefits     string  `json:"benefits"`
	IsActive     bool    `json:"is_active"`
}

// SampleCourses is the catalogue loaded by SeedCourses.
var SampleCourses = []CourseSeed{
	{
		Title:        "Database Fundamentals",
		Description:  "Learn the basics of database design, normalization, and SQL fundamentals.",
		Instructor:   "John Smith",
		Duration:     "2 days",
		Level:        "beginner",
		Category:     "Database",
		Price:        1200,
		MaxStudents:  12,
		StartDate:    "2024-02-15",
		Requirements: "Basic computer knowledge, Basic understanding of data concepts",
		Benefits:     "Understand database fundamentals, Write efficient SQL queries, Design normalized databases, Implement basic optimization",
		IsActive:     true,
	},
	{
		Title:        "Performance Optimization Masterclass",
		Description:  "Deep dive into database performance tuning and optimization techniques.",
		Instructor:   "Sarah Johnson",
		Duration:     "3 days",
		Level:        "advanced",
		Category:     "Database",
		Price:        2500,
		MaxStudents:  10,
		StartDate:    "2024-02-20",
		Requirements: "Strong SQL knowledge, Database administration experience, Understanding of database internals",
		Benefits:     "Master query optimization, Implement effective indexing, Analyze performance metrics, Resolve complex issues",
		IsActive:     true,
	},
	{
		Title:        "Database Security & Compliance",
		Description:  "Comprehensive security practices and compliance requirements for databases.",
		Instructor:   "Mike Davis",
		Duration:     "2 days",
		Level:        "intermediate",
		Category:     "Security",
		Price:        1800,
		MaxStudents:  12,
		StartDate:    "2024-02-25",
		Requirements: "Database fundamentals, Basic security concepts, Understanding of compliance requirements",
		Benefits:     "Implement security controls, Ensure compliance requirements, Conduct security audits, Manage access permissions",
		IsActive:     true,
	},
}

// SeedCourses inserts courses and returns how many rows were stored.
func SeedCourses(ctx context.Context, c *Client, courses []CourseSeed) (int, error) {
	if len(courses) == 0 {
		return 0, nil
	}
	var stored []map[string]any
	if err := c.Insert(ctx, "courses", courses, &stored); err != nil {
		return 0, fmt.Errorf("seed courses: %w", err)
	}
	return len(stored), nil
}

// Company is a support-portal customer.
type Company struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	MaxSupportUsers int    `json:"max_support_users"`
}

// EnsureCompany inserts company, or looks it up by name when it already
// exists, and returns its id.
func EnsureCompany(ctx context.Context, c *Client, company Company) (string, error) {
	row := map[string]any{
		"name":                  company.Name,
		"email":                 company.Email,
		"phone":                 company.Phone,
		"max_support_users":     company.MaxSupportUsers,
		"current_support_users": 0,
		"is_active":             true,
	}
	var stored []struct {
		ID any `json:"id"`
	}
	err := c.Insert(ctx, "companies", []map[string]any{row}, &stored)
	if errors.Is(err, ErrConflict) {
		stored = nil
		err = c.Select(ctx, "companies", url.Values{"select": {"id"}, "name": {"eq." + company.Name}, "limit": {"1"}}, &stored)
	}
	if err != nil {
		return "", fmt.Errorf("ensure company %q: %w", company.Name, err)
	}
	if len(stored) == 0 {
		return "", fmt.Errorf("ensure company %q: no row returned", company.Name)
	}
	return fmt.Sprint(stored[0].ID), nil
}

// Account is an auth user plus its profile row.
type Account struct {
	Email    string
	Password string
	FullName string
	Role     string
	// CompanyID links client accounts to their company.
	CompanyID string
}

// AccountResult reports what EnsureAccount did.
type AccountResult struct {
	UserID   string
	Password string
	// Existed is true when the auth user was already registered.
	Existed bool
	// ProfileCreated is false when the profile already existed or the user id
	// of an existing account could not be resolved.
	ProfileCreated bool
}

// EnsureAccount creates a confirmed auth user and its profile. Already
// registered users and duplicate profiles are tolerated. An empty password
// is replaced by a random one, returned in the result.
func EnsureAccount(ctx context.Context, c *Client, a Account) (AccountResult, error) {
	res := AccountResult{Password: a.Password}
	if res.Password == "" {
		res.Password = "Az-" + uuid.NewString()
	}

	id, err := c.CreateAuthUser(ctx, AuthUser{
		Email:    a.Email,
		Password: res.Password,
		Metadata: map[string]any{"full_name": a.FullName},
	})
	switch {
	case errors.Is(err, ErrConflict):
		res.Existed = true
		res.Password = ""
		var rows []struct {
			UserID string `json:"user_id"`
		}
		if err := c.Select(ctx, "profiles", url.Values{"select": {"user_id"}, "email": {"eq." + a.Email}, "limit": {"1"}}, &rows); err != nil {
			return res, fmt.Errorf("lookup profile %s: %w", a.Email, err)
		}
		if len(rows) > 0 {
			res.UserID = rows[0].UserID
		}
		return res, nil
	case err != nil:
		return res, fmt.Errorf("create auth user %s: %w", a.Email, err)
	}

	uid, err := uuid.Parse(id)
	if err != nil {
		return res, fmt.Errorf("create auth user %s: unexpected id %q: %w", a.Email, id, err)
	}
	res.UserID = uid.String()

	profile := map[string]any{
		"user_id":   res.UserID,
		"email":     a.Email,
		"full_name": a.FullName,
		"role":      a.Role,
		"is_active": true,
	}
	if a.CompanyID != "" {
		profile["company_id"] = a.CompanyID
	}
	err = c.Insert(ctx, "profiles", []map[string]any{profile}, nil)
	switch {
	case errors.Is(err, ErrConflict):
		return res, nil
	case err != nil:
		return res, fmt.Errorf("insert profile %s: %w", a.Email, err)
	}
	res.ProfileCreated = true
	return res, nil
}

// DemoCompany and DemoAccounts are the fixtures loaded by the seed command.
var (
	DemoCompany = Company{Name: "TechCorp Solutions", Email: "contact@techcorp.com", Phone: "+1-555-0123", MaxSupportUsers: 5}

	DemoAccounts = []Account{
		{Email: "admin@azellar.com", FullName: "System Administrator", Role: "admin"},
		{Email: "student@example.com", FullName: "Jane Doe", Role: "student"},
		{Email: "client@techcorp.com", FullName: "John Smith", Role: "client"},
	}
)
