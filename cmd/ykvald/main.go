// Command ykvald is the OTP validation daemon: it serves wsapi/2.0/verify,
// the sibling sync endpoints, and Prometheus metrics, wired from
// internal/config (SPEC_FULL.md cmd/ykvald module).
package main

import (
	"context"
	"os"

	"cosmossdk.io/log"

	"github.com/timhilliard/yubistack/cmd/ykvald/cmd"
)

func main() {
	logger := log.NewLogger(os.Stdout)
	if err := cmd.NewRootCmd(logger).ExecuteContext(context.Background()); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
