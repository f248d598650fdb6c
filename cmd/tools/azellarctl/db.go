package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/azellar/backend/internal/obs"
	"github.com/azellar/backend/internal/supabase"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Provision and inspect the Supabase project",
	}
	cmd.AddCommand(newDBVerifyCmd(a), newDBSetupCmd(a), newDBSeedCmd(a))
	return cmd
}

// client builds a Supabase client. Read-only commands fall back to the anon
// key; writes need the service role key.
func (a *app) client(needService bool) (*supabase.Client, error) {
	key := a.cfg.SupabaseServiceKey
	if !needService && key == "" {
		key = a.cfg.SupabaseAnonKey
	}
	if needService && key == "" {
		return nil, errors.New("SUPABASE_SERVICE_KEY is required for this command")
	}
	return supabase.NewClient(supabase.Config{
		BaseURL:    a.cfg.SupabaseURL,
		APIKey:     key,
		HTTPClient: obs.HTTPClient(0),
	})
}

func newDBVerifyCmd(a *app) *cobra.Command {
	var support bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check connectivity, required tables and course data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(false)
			if err != nil {
				return err
			}
			tables := append([]string(nil), supabase.CoreTables...)
			if support {
				tables = append(tables, supabase.SupportTables...)
			}
			rep := supabase.Verify(cmd.Context(), c, tables)

			out := cmd.OutOrStdout()
			if rep.PingErr != nil {
				fmt.Fprintf(out, "connection: FAILED (%v)\n", rep.PingErr)
				return errChecksFailed
			}
			fmt.Fprintln(out, "connection: OK")
			if rep.ListErr != nil {
				a.logger.Warn().Err(rep.ListErr).Msg("table listing unavailable")
			} else {
				fmt.Fprintf(out, "tables visible: %s\n", strings.Join(rep.Listed, ", "))
			}
			for _, t := range rep.Tables {
				state := "EXISTS"
				switch {
				case t.Err != nil:
					state = fmt.Sprintf("ERROR (%v)", t.Err)
				case !t.Exists:
					state = "MISSING"
				}
				fmt.Fprintf(out, "table %-26s %s\n", t.Name, state)
			}
			if rep.CoursesErr != nil {
				fmt.Fprintf(out, "courses: FAILED (%v)\n", rep.CoursesErr)
			} else {
				fmt.Fprintf(out, "courses: %d found\n", len(rep.Courses))
				for _, course := range rep.Courses {
					fmt.Fprintf(out, "  - %s by %s ($%.2f)\n", course.Title, course.Instructor, course.Price)
				}
			}
			if !rep.OK() {
				return errChecksFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&support, "support", false, "also check the support portal tables")
	return cmd
}

func newDBSetupCmd(a *app) *cobra.Command {
	var schemaPath string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Apply a SQL schema through the execute_sql RPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			script, err := os.ReadFile(schemaPath)
			if err != nil {
				return fmt.Errorf("read schema: %w", err)
			}
			c, err := a.client(true)
			if err != nil {
				return err
			}
			res, err := supabase.ApplySchema(cmd.Context(), c, string(script), a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d statements, %d failed\n", res.Applied, len(res.Failed))
			if !res.OK() {
				return errChecksFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to the SQL schema file")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newDBSeedCmd(a *app) *cobra.Command {
	var withAccounts bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample course catalogue and demo accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(true)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			n, err := supabase.SeedCourses(ctx, c, supabase.SampleCourses)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "inserted %d courses\n", n)
			if !withAccounts {
				return nil
			}

			companyID, err := supabase.EnsureCompany(ctx, c, supabase.DemoCompany)
			if err != nil {
				a.logger.Error().Err(err).Msg("company not available; client account skipped")
			}
			failed := false
			for _, acct := range supabase.DemoAccounts {
				if acct.Role == "client" {
					if companyID == "" {
						fmt.Fprintf(out, "%-24s skipped (no company)\n", acct.Email)
						failed = true
						continue
					}
					acct.CompanyID = companyID
				}
				res, err := supabase.EnsureAccount(ctx, c, acct)
				if err != nil {
					a.logger.Error().Err(err).Str("email", acct.Email).Msg("account not created")
					failed = true
					continue
				}
				switch {
				case res.Existed:
					fmt.Fprintf(out, "%-24s already registered\n", acct.Email)
				default:
					fmt.Fprintf(out, "%-24s created (%s) password=%s\n", acct.Email, acct.Role, res.Password)
				}
			}
			if failed {
				return errChecksFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withAccounts, "accounts", false, "also create the demo company and user accounts")
	return cmd
}
