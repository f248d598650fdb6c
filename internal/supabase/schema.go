package supabase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// SplitStatements cuts a SQL script on semicolons, ignoring those inside
// quoted strings, dollar-quoted bodies and line comments. Statements are
// trimmed and empty ones dropped.
func SplitStatements(script string) []string {
	var (
		out     []string
		current strings.Builder
		quote   bool
		dollar  string
		comment bool
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			out = append(out, stmt)
		}
		current.Reset()
	}
	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case comment:
			if ch == '\n' {
				comment = false
			}
			current.WriteByte(ch)
			continue
		case dollar != "":
			if strings.HasPrefix(script[i:], dollar) {
				current.WriteString(dollar)
				i += len(dollar) - 1
				dollar = ""
				continue
			}
			current.WriteByte(ch)
			continue
		case quote:
			if ch == '\'' {
				quote = false
			}
			current.WriteByte(ch)
			continue
		}

		switch ch {
		case ';':
			flush()
		case '\'':
			quote = true
			current.WriteByte(ch)
		case '-':
			if i+1 < len(script) && script[i+1] == '-' {
				comment = true
			}
			current.WriteByte(ch)
		case '$':
			if tag := dollarTag(script[i:]); tag != "" {
				dollar = tag
				current.WriteString(tag)
				i += len(tag) - 1
				continue
			}
			current.WriteByte(ch)
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return out
}

// dollarTag returns the opening tag ($$ or $name$) at the start of s.
func dollarTag(s string) string {
	end := strings.IndexByte(s[1:], '$')
	if end < 0 {
		return ""
	}
	tag := s[:end+2]
	for _, r := range tag[1 : len(tag)-1] {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return tag
}

// StatementError records one statement the database rejected.
type StatementError struct {
	Index     int
	Statement string
	Err       error
}

// ApplyResult summarises a schema run.
type ApplyResult struct {
	Applied int
	Failed  []StatementError
}

// OK reports whether every statement succeeded.
func (r ApplyResult) OK() bool { return len(r.Failed) == 0 }

// ApplySchema executes each statement of script in order. A failed statement
// is logged and recorded; later statements still run. Only context
// cancellation stops the run early.
func ApplySchema(ctx context.Context, c *Client, script string, logger zerolog.Logger) (ApplyResult, error) {
	var res ApplyResult
	for i, stmt := range SplitStatements(script) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := c.ExecuteSQL(ctx, stmt); err != nil {
			logger.Error().Err(err).Int("statement", i+1).Str("sql", preview(stmt)).Msg("statement failed")
			res.Failed = append(res.Failed, StatementError{Index: i + 1, Statement: stmt, Err: err})
			continue
		}
		logger.Debug().Int("statement", i+1).Msg("statement applied")
		res.Applied++
	}
	return res, nil
}

func preview(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 100 {
		return stmt[:100] + "..."
	}
	return stmt
}
