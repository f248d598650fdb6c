package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/azellar/backend/internal/obs"
	"github.com/azellar/backend/internal/smoke"
)

func newSmokeCmd(a *app) *cobra.Command {
	var (
		baseURL string
		opts    smoke.Options
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run end-to-end checks against a running API",
		Long: `Calls every public endpoint of a running API and verifies status codes
and response shapes. Sends real email through the configured provider.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if baseURL == "" {
				baseURL = a.cfg.BackendURL
			}
			runner := smoke.Runner{BaseURL: baseURL, HTTP: obs.HTTPClient(timeout), Logger: a.logger}
			rep := runner.Run(cmd.Context(), smoke.DefaultChecks(opts))

			out := cmd.OutOrStdout()
			for _, res := range rep.Results {
				mark := "PASS"
				if !res.Passed() {
					mark = "FAIL"
				}
				fmt.Fprintf(out, "%-28s %s  status=%d  %s\n", res.Name, mark, res.Status, res.Latency.Round(time.Millisecond))
			}
			if !rep.Passed() {
				return errChecksFailed
			}
			fmt.Fprintf(out, "all %d checks passed against %s\n", len(rep.Results), baseURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "API base URL (defaults to BACKEND_URL)")
	cmd.Flags().StringVar(&opts.DeliverableEmail, "deliverable-email", "", "recipient the provider accepts")
	cmd.Flags().StringVar(&opts.RejectedEmail, "rejected-email", "", "recipient the provider refuses")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	return cmd
}
