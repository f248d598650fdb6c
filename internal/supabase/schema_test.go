package supabase

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `
-- profiles; one row per auth user
CREATE TABLE profiles (id uuid primary key, note text default 'a;b');

CREATE FUNCTION touch() RETURNS trigger AS $$
BEGIN
  NEW.updated_at = now();
  RETURN NEW;
END;
$$ LANGUAGE plpgsql;
;
ALTER TABLE profiles ENABLE ROW LEVEL SECURITY`

	stmts := SplitStatements(script)
	require.Len(t, stmts, 3)
	require.Contains(t, stmts[0], "'a;b'")
	require.Contains(t, stmts[1], "RETURN NEW;")
	require.Contains(t, stmts[1], "LANGUAGE plpgsql")
	require.Equal(t, "ALTER TABLE profiles ENABLE ROW LEVEL SECURITY", stmts[2])
}

func TestApplySchemaContinuesAfterFailure(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		seen = append(seen, body["query"])
		if body["query"] == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"syntax error"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	res, err := ApplySchema(t.Context(), c, "create table a(); bad; create table b()", zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, []string{"create table a()", "bad", "create table b()"}, seen)
	require.Equal(t, 2, res.Applied)
	require.False(t, res.OK())
	require.Len(t, res.Failed, 1)
	require.Equal(t, 2, res.Failed[0].Index)
}
