// Package cmd builds ykvald's cobra command tree, the way cmd_pawd's root
// command binds persistent flags and a config file before dispatching to
// subcommands.
package cmd

import (
	"cosmossdk.io/log"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the ykvald root command.
func NewRootCmd(logger log.Logger) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "ykvald",
		Short: "YubiKey OTP validation daemon",
		Long:  "ykvald serves the wsapi/2.0/verify endpoint and replicates acceptances across a sibling set of validation servers.",
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")

	root.AddCommand(newServeCmd(logger, &configFile))
	root.AddCommand(newResyncCmd(logger, &configFile))

	return root
}
