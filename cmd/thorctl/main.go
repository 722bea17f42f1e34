package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/thorium/pkg/apierror"
	"github.com/cuemby/thorium/pkg/log"
)

var (
	// Version is set via ldflags at build time.
	Version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error to the exit code thorctl reports: 0 on
// success (never reached here), the apierror taxonomy's code for a
// domain error, or 1 for anything thorctl can't otherwise classify.
func exitCodeFor(err error) int {
	if apiErr, ok := err.(*apierror.Error); ok {
		return apiErr.ExitCode()
	}
	return 1
}

var rootCmd = &cobra.Command{
	Use:     "thorctl",
	Short:   "thorctl drives a Thorium cluster's reaction, pipeline, and image API",
	Version: Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://127.0.0.1:8080", "Thorium API base URL")
	rootCmd.PersistentFlags().String("token-file", defaultTokenFile(), "path to the bearer token written by `thorctl login`")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "emit logs as JSON")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(loginCmd, whoamiCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(pipelinesCmd)
	rootCmd.AddCommand(reactionsCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOutput})
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".thorctl-token"
	}
	return home + "/.thorctl-token"
}

func clientFromCmd(cmd *cobra.Command) (*Client, error) {
	server, _ := cmd.Flags().GetString("server")
	tokenFile, _ := cmd.Flags().GetString("token-file")
	return NewClient(server, tokenFile)
}
