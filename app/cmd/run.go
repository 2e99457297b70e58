package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexcodex/swarmcouncil/agents"
	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/llm"
)

type runFlags struct {
	skipReview    bool
	until         string
	parallel      bool
	maxConcurrent int
	jsonOut       bool
	metricsAddr   string
	apiKey        string
	showLog       bool
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run <topic...>",
		Short: "Run the council pipeline over a research topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(strings.Join(args, " "))
			if topic == "" {
				return agents.ErrNoTopic
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runCouncil(ctx, cmd, topic, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.skipReview, "skip-review", false, "Skip anonymous peer review")
	cmd.Flags().StringVar(&flags.until, "until", "", "Stop after stage (explore|review|synthesize|propose)")
	cmd.Flags().BoolVar(&flags.parallel, "parallel", false, "Run persona calls concurrently")
	cmd.Flags().IntVar(&flags.maxConcurrent, "max-concurrent", 0, "Concurrency bound for --parallel")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Print the run snapshot as JSON")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "OpenRouter API key (overrides config and environment)")
	cmd.Flags().BoolVar(&flags.showLog, "log", false, "Print the activity log after the report")
	return cmd
}

func runCouncil(ctx context.Context, cmd *cobra.Command, topic string, flags runFlags) error {
	cfg := globalCfg
	opts := agents.RunOptions{SkipReview: cfg.Pipeline.SkipReview || flags.skipReview}
	if flags.until != "" {
		stage, err := framework.ParseStage(flags.until)
		if err != nil {
			return err
		}
		opts.Until = stage
	}
	runnerOpts := cfg.RunnerOptions()
	if cmd.Flags().Changed("parallel") {
		runnerOpts.Parallel = flags.parallel
	}
	if flags.maxConcurrent > 0 {
		runnerOpts.MaxConcurrent = flags.maxConcurrent
	}

	key := cfg.APIKey
	if flags.apiKey != "" {
		key = flags.apiKey
	}
	credential := llm.NewCredential(key)

	reg, err := buildRegistry(ensureWorkspace())
	if err != nil {
		return err
	}
	telemetry, closeTelemetry, err := buildTelemetry(cfg)
	if err != nil {
		return err
	}
	defer closeTelemetry()

	addr := cfg.Metrics.Addr
	if flags.metricsAddr != "" {
		addr = flags.metricsAddr
	}
	if addr != "" {
		shutdown := serveMetrics(addr)
		defer shutdown()
	}

	stderr := cmd.ErrOrStderr()
	model := llm.NewInstrumentedModel(llm.NewClient(credential, cfg.ClientConfig()), telemetry, logger, cfg.Logging.LLMDebug)
	council, err := agents.NewCouncil(agents.CouncilOptions{
		Registry:   reg,
		Model:      model,
		Credential: credential,
		Logger:     logger,
		Telemetry:  telemetry,
		Runner:     runnerOpts,
		Observer: func(stage framework.Stage, done, total int) {
			fmt.Fprintf(stderr, "%s: %d/%d personas done\n", stage, done, total)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Council of %d personas on %q\n", reg.Len(), topic)
	state, runErr := council.Run(ctx, topic, opts)
	if runErr != nil {
		for _, e := range state.Log.Entries() {
			if e.Level == framework.LevelError {
				fmt.Fprintln(stderr, renderEntry(e))
			}
		}
		if errors.Is(runErr, llm.ErrCredentialMissing) {
			fmt.Fprintln(stderr, llm.Hint(runErr, ""))
		}
	}
	if err := writeResult(cmd.OutOrStdout(), state, flags); err != nil {
		return err
	}
	return runErr
}

func writeResult(w io.Writer, state *framework.RunState, flags runFlags) error {
	if flags.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}
	if _, err := fmt.Fprint(w, renderReport(state)); err != nil {
		return err
	}
	if flags.showLog {
		_, err := fmt.Fprint(w, "\n"+renderActivity(state.Log.Entries()))
		return err
	}
	return nil
}

// buildTelemetry always logs events through zap and adds a JSONL trace file
// when logging.trace_file is configured.
func buildTelemetry(cfg *agents.Config) (framework.Telemetry, func(), error) {
	sinks := framework.MultiplexTelemetry{Sinks: []framework.Telemetry{framework.ZapTelemetry{Logger: logger}}}
	if cfg.Logging.TraceFile == "" {
		return sinks, func() {}, nil
	}
	trace, err := framework.NewJSONFileTelemetry(cfg.Logging.TraceFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace file: %w", err)
	}
	sinks.Sinks = append(sinks.Sinks, trace)
	return sinks, func() {
		if err := trace.Close(); err != nil {
			logger.Warn("closing trace file", zap.Error(err))
		}
	}, nil
}

func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
