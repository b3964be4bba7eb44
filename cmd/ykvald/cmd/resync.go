package cmd

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
)

// newResyncCmd triggers a running daemon's /resync endpoint, for operators
// bringing a replica back after an extended outage (spec §4.6).
func newResyncCmd(logger log.Logger, _ *string) *cobra.Command {
	var addr, target string

	c := &cobra.Command{
		Use:   "resync",
		Short: "trigger a full resync against a running daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := fmt.Sprintf("%s/resync?%s", addr, url.Values{"yk_publicname": {target}}.Encode())
			resp, err := http.Post(u, "application/x-www-form-urlencoded", nil)
			if err != nil {
				return fmt.Errorf("resync: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("resync: read response: %w", err)
			}
			logger.Info("resync requested", "target", target, "status", resp.StatusCode)
			cmd.Println(string(body))
			return nil
		},
	}
	c.Flags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "base URL of the running daemon")
	c.Flags().StringVar(&target, "target", "all", "public_name to resync, or \"all\"")
	return c
}
