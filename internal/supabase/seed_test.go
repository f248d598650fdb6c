package supabase

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyReportsMissingTables(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/":
			w.WriteHeader(http.StatusOK)
		case "/rest/v1/rpc/list_tables":
			_, _ = w.Write([]byte(`[{"name":"courses"}]`))
		case "/rest/v1/courses":
			if r.Header.Get("Range") != "" {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`[]`))
				return
			}
			_, _ = w.Write([]byte(`[{"id":1,"title":"Database Fundamentals","instructor":"John Smith","price":1200}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	rep := Verify(t.Context(), c, []string{"courses", "enrollments"})
	require.NoError(t, rep.PingErr)
	require.Equal(t, []string{"courses"}, rep.Listed)
	require.Equal(t, []string{"enrollments"}, rep.Missing())
	require.Len(t, rep.Courses, 1)
	require.False(t, rep.OK())
}

func TestVerifyKeepsTableErrorsApartFromMissing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/v1/", "/rest/v1/courses":
			_, _ = w.Write([]byte(`[]`))
		case "/rest/v1/enrollments":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	rep := Verify(t.Context(), c, []string{"courses", "enrollments"})
	require.Empty(t, rep.Missing())
	require.False(t, rep.OK())
	require.Equal(t, "enrollments", rep.Tables[1].Name)
	require.False(t, rep.Tables[1].Exists)
	require.Error(t, rep.Tables[1].Err)
}

func TestVerifyStopsWhenUnreachable(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})
	rep := Verify(t.Context(), c, CoreTables)
	require.Error(t, rep.PingErr)
	require.False(t, rep.OK())
	require.Equal(t, 1, calls)
}

func TestSeedCourses(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/courses", r.URL.Path)
		var rows []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
		require.Equal(t, "Database Fundamentals", rows[0]["title"])
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(rows)
	})
	n, err := SeedCourses(t.Context(), c, SampleCourses)
	require.NoError(t, err)
	require.Equal(t, len(SampleCourses), n)
}

func TestEnsureAccountCreatesProfile(t *testing.T) {
	var profile map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/admin/users":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.NotEmpty(t, body["password"])
			_, _ = w.Write([]byte(`{"id":"0b5e8f62-52a4-4b8e-a0b7-0d7f5b2a9c11"}`))
		case "/rest/v1/profiles":
			var rows []map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&rows))
			profile = rows[0]
			w.WriteHeader(http.StatusCreated)
		}
	})

	res, err := EnsureAccount(t.Context(), c, Account{Email: "client@techcorp.com", FullName: "John Smith", Role: "client", CompanyID: "42"})
	require.NoError(t, err)
	require.True(t, res.ProfileCreated)
	require.NotEmpty(t, res.Password)
	require.Equal(t, "0b5e8f62-52a4-4b8e-a0b7-0d7f5b2a9c11", profile["user_id"])
	require.Equal(t, "42", profile["company_id"])
	require.Equal(t, "client", profile["role"])
}

func TestEnsureAccountToleratesExistingUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/admin/users":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"msg":"User already registered"}`))
		case "/rest/v1/profiles":
			require.Equal(t, "eq.admin@azellar.com", r.URL.Query().Get("email"))
			_, _ = w.Write([]byte(`[{"user_id":"0b5e8f62-52a4-4b8e-a0b7-0d7f5b2a9c11"}]`))
		}
	})

	res, err := EnsureAccount(t.Context(), c, Account{Email: "admin@azellar.com", Password: "secret", Role: "admin"})
	require.NoError(t, err)
	require.True(t, res.Existed)
	require.False(t, res.ProfileCreated)
	require.Empty(t, res.Password)
	require.Equal(t, "0b5e8f62-52a4-4b8e-a0b7-0d7f5b2a9c11", res.UserID)
}

func TestEnsureCompanyLooksUpExisting(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate"}`))
			return
		}
		require.Equal(t, "eq.TechCorp Solutions", r.URL.Query().Get("name"))
		_, _ = w.Write([]byte(`[{"id":"c-1"}]`))
	})
	id, err := EnsureCompany(t.Context(), c, DemoCompany)
	require.NoError(t, err)
	require.Equal(t, "c-1", id)
}
