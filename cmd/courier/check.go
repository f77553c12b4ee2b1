package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/courier/pkg/cli"
	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/evidence"
	"mercator-hq/courier/pkg/evidence/storage"
	sectls "mercator-hq/courier/pkg/security/tls"
	"mercator-hq/courier/pkg/telemetry/health"
	"mercator-hq/courier/pkg/telemetry/metrics"
)

type checkOptions struct {
	connectionOptions
	models bool
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	o := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the upstream is reachable through the proxy",
		Long: `Check connectivity by listing models (GET /models) through the proxy.

Prints the proxy, base URL, the proxy CA when one is configured, and the
round-trip latency, followed by one line per check:

  upstream   GET /models through the proxy
  proxy_ca   the proxy CA loads and has not expired
  evidence   the evidence database opens (when recording is enabled)

Exits non-zero when any check fails.

Examples:
  courier check
  courier check --models --proxy http://127.0.0.1:8888`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, g, o)
		},
	}

	addConnectionFlags(cmd.Flags(), &o.connectionOptions)
	cmd.Flags().BoolVar(&o.models, "models", false, "list the available models")

	return cmd
}

func runCheck(cmd *cobra.Command, g *globalOptions, o *checkOptions) error {
	cfg := g.cfg
	o.apply(cmd.Flags(), cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Proxy:    %s\n", proxyLabel(cfg))
	fmt.Fprintf(out, "Base URL: %s\n", cfg.Client.BaseURL)
	if cfg.Proxy.TLS.CACertFile != "" {
		printCA(out, cfg.Proxy.TLS.CACertFile)
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	provider, err := newProvider(ctx, cfg, collector)
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	defer provider.Close()

	checker := health.New(cfg.Client.Timeout)

	var models []string
	checker.Register("upstream", func(ctx context.Context) error {
		return provider.RunHealthCheck(ctx, func(ctx context.Context) error {
			var err error
			models, err = provider.ListModels(ctx)
			return err
		})
	})
	checker.Register("proxy_ca", func(ctx context.Context) error {
		return checkCA(cfg.Proxy.TLS.CACertFile)
	})
	checker.Register("evidence", func(ctx context.Context) error {
		return checkEvidence(ctx, cfg.Evidence)
	})

	report := checker.Run(ctx)

	providerHealth := provider.GetHealth()
	collector.UpdateProviderHealth(provider.GetName(), providerHealth.IsHealthy)
	writeMetrics(collector, cfg.Telemetry.Metrics.Textfile, cmd.ErrOrStderr())

	upstream, _ := report.Result("upstream")
	if upstream.Status == health.StatusOK {
		fmt.Fprintf(out, "Status:   healthy (%s)\n", providerHealth.LastLatency.Round(time.Millisecond))
	} else {
		fmt.Fprintf(out, "Status:   unhealthy (%s)\n", upstream.Duration.Round(time.Millisecond))
	}

	fmt.Fprintln(out, "Checks:")
	for _, r := range report.Checks {
		line := fmt.Sprintf("  %-9s %s", r.Name, r.Status)
		if r.Message != "" {
			line += ": " + r.Message
		}
		fmt.Fprintln(out, line)
	}

	if upstream.Status == health.StatusOK && o.models {
		fmt.Fprintf(out, "Models:   %d\n", len(models))
		for _, id := range models {
			fmt.Fprintf(out, "  %s\n", id)
		}
	}

	if !report.Healthy() {
		return cli.NewCommandError("check", fmt.Errorf("%s", failedChecks(report)))
	}
	return nil
}

// failedChecks summarizes the unhealthy checks of a report.
func failedChecks(report health.Report) string {
	var failed []string
	for _, r := range report.Checks {
		if r.Status == health.StatusUnhealthy {
			failed = append(failed, r.Name+": "+r.Message)
		}
	}
	return strings.Join(failed, "; ")
}

// checkCA fails when the proxy CA cannot be loaded or has expired.
func checkCA(path string) error {
	if path == "" {
		return fmt.Errorf("no proxy CA configured: %w", health.ErrSkipped)
	}

	certs, err := sectls.LoadCertificates(path)
	if err != nil {
		return err
	}
	if days, _ := sectls.CheckCertificateExpiration(certs[0]); days < 0 {
		return fmt.Errorf("certificate %s has expired", path)
	}
	return nil
}

// checkEvidence opens the evidence store and counts its records.
func checkEvidence(ctx context.Context, cfg config.EvidenceConfig) error {
	if !cfg.Enabled {
		return fmt.Errorf("recording disabled: %w", health.ErrSkipped)
	}

	store, err := storage.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Count(ctx, &evidence.Query{})
	return err
}

// printCA describes the first certificate of the configured CA bundle.
func printCA(out io.Writer, path string) {
	certs, err := sectls.LoadCertificates(path)
	if err != nil {
		fmt.Fprintf(out, "Proxy CA: error: %v\n", err)
		return
	}

	info := sectls.ExtractCertificateInfo(certs[0])
	days, warning := sectls.CheckCertificateExpiration(certs[0])
	fmt.Fprintf(out, "Proxy CA: %s (expires in %d days)\n", info.Subject, days)
	if warning != "" {
		fmt.Fprintf(out, "          warning: %s\n", warning)
	}
	if len(certs) > 1 {
		fmt.Fprintf(out, "          %d more certificates in %s\n", len(certs)-1, path)
	}
}
