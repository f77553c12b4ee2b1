package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/courier/pkg/cli"
	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/telemetry/logging"
)

// skipConfigAnnotation marks commands that run without loading configuration.
const skipConfigAnnotation = "courier/skip-config"

// globalOptions holds the persistent flags and the state they produce.
type globalOptions struct {
	configFile string
	verbose    bool
	debug      bool
	logFormat  string

	// cfg is loaded by the root PersistentPreRunE
	cfg *config.Config
}

// newRootCmd builds the command tree. Running the root command without a
// subcommand sends a chat completion.
func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	chat := &chatOptions{}

	rootCmd := &cobra.Command{
		Use:   "courier [message...]",
		Short: "Send chat completions through an intercepting proxy",
		Long: `Courier sends an OpenAI-compatible chat completion through a forward proxy
and prints the response.

The upstream base URL comes from OPENAI_BASE_URL (default
http://api.openai.com/v1) and every request goes through the proxy at
http://localhost:8080 unless configured otherwise. With no arguments the
message "Hello, you are amazing." is sent to gpt-3.5-turbo.

Without a subcommand courier behaves like "courier chat".`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}
			return g.load(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, args, g, chat)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "config file path (defaults only when empty)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "verbose output (info logs)")
	rootCmd.PersistentFlags().BoolVarP(&g.debug, "debug", "d", false, "debug logs")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: text, json, console")

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return cli.NewConfigError("flags", err.Error())
	})

	addChatFlags(rootCmd, chat)

	rootCmd.AddCommand(
		newChatCmd(g),
		newCheckCmd(g),
		newConfigCmd(g),
		newEvidenceCmd(g),
		newVersionCmd(),
		newCompletionCmd(rootCmd),
	)

	return rootCmd
}

// load reads the configuration and installs the logger.
func (g *globalOptions) load(logOutput io.Writer) error {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return err
	}

	switch {
	case g.debug:
		cfg.Telemetry.Logging.Level = "debug"
	case g.verbose:
		cfg.Telemetry.Logging.Level = "info"
	}
	if g.logFormat != "" {
		cfg.Telemetry.Logging.Format = g.logFormat
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, logOutput))
	if err != nil {
		return cli.NewConfigError("log-format", err.Error())
	}
	logger.SetDefault()

	g.cfg = cfg
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(newRootCmd(), os.Args[1:], os.Stderr)
}

// run executes cmd with args, printing any error to stderr.
func run(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}
