package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zen-systems/triagegate/pkg/config"
	"github.com/zen-systems/triagegate/pkg/geo"
	"github.com/zen-systems/triagegate/pkg/orchestrator"
	"github.com/zen-systems/triagegate/pkg/provider"
	"github.com/zen-systems/triagegate/pkg/server"
	"github.com/zen-systems/triagegate/pkg/triage"
)

var configFile string

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	rootCmd := &cobra.Command{
		Use:   "triagegate",
		Short: "AI fever triage gateway with provider fallback and safety overrides",
		Long: `Triagegate assesses structured patient symptom data by delegating
	reasoning to an ordered chain of LLM providers, retrying under rate
	limits and falling back across providers. When no provider output is
	usable it degrades to a deterministic rule-based baseline, and hard
	clinical safety thresholds are enforced on every result.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	rootCmd.AddCommand(serveCmd(log))
	rootCmd.AddCommand(assessCmd(log))
	rootCmd.AddCommand(chatCmd(log))
	rootCmd.AddCommand(providersCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

// buildChain constructs the configured provider clients in attempt
// order. A provider whose constructor fails is logged and skipped; it
// only narrows the fallback options.
func buildChain(cfg *config.Config, log zerolog.Logger) []provider.Client {
	var chain []provider.Client
	for _, id := range cfg.Chain() {
		client, err := newClient(id, cfg)
		if err != nil {
			log.Warn().Stringer("provider", id).Err(err).Msg("skipping provider")
			continue
		}
		chain = append(chain, client)
	}
	return chain
}

func newClient(id provider.ID, cfg *config.Config) (provider.Client, error) {
	switch id {
	case provider.Gemini:
		return provider.NewGeminiClient(cfg.GeminiAPIKey, cfg.Models.Gemini, cfg.Models.GeminiVision)
	case provider.OpenAI:
		return provider.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.Models.OpenAI)
	case provider.Anthropic:
		return provider.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Models.Anthropic)
	case provider.Ollama:
		return provider.NewOllamaClient(cfg.OllamaURL, cfg.Models.Ollama)
	default:
		return nil, fmt.Errorf("unknown provider %v", id)
	}
}

func buildService(cfg *config.Config, chain []provider.Client, log zerolog.Logger) *triage.Service {
	orch := orchestrator.New(chain,
		orchestrator.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff:     cfg.RetryBackoff(),
		},
		orchestrator.WithAttemptTimeout(cfg.AttemptTimeout),
		orchestrator.WithLogger(log),
	)
	return triage.NewService(orch,
		triage.WithRequestTimeout(cfg.RequestTimeout),
		triage.WithServiceLogger(log),
	)
}

func serveCmd(log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the triage HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			chain := buildChain(cfg, log)
			if len(chain) == 0 {
				log.Warn().Msg("no providers configured; serving rule-based assessments only")
			}
			svc := buildService(cfg, chain, log)

			geoClient, err := geo.NewClient(cfg.Geocode.BaseURL)
			if err != nil {
				log.Warn().Err(err).Msg("geocoding disabled")
			}

			srv := server.New(svc, geoClient, chain, cfg, log)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(cfg.Server.Addr)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				log.Info().Str("signal", sig.String()).Msg("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
}

func assessCmd(log zerolog.Logger) *cobra.Command {
	var (
		temperature float64
		duration    int
		age         int
		symptoms    []string
		history     string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Run one triage assessment and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			input := triage.PatientInput{
				Temperature:    temperature,
				DurationHours:  duration,
				Symptoms:       symptoms,
				Age:            age,
				MedicalHistory: history,
			}
			if err := input.Validate(); err != nil {
				return err
			}

			svc := buildService(cfg, buildChain(cfg, log), log)
			assessment := svc.Assess(cmd.Context(), input)

			out, err := json.MarshalIndent(assessment, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().Float64Var(&temperature, "temp", 0, "temperature in Fahrenheit (required)")
	cmd.Flags().IntVar(&duration, "hours", 1, "fever duration in hours")
	cmd.Flags().IntVar(&age, "age", 0, "patient age in years (required)")
	cmd.Flags().StringSliceVar(&symptoms, "symptom", nil, "symptom (repeatable)")
	cmd.Flags().StringVar(&history, "history", "", "optional medical history")
	_ = cmd.MarkFlagRequired("temp")
	_ = cmd.MarkFlagRequired("age")
	_ = cmd.MarkFlagRequired("symptom")

	return cmd
}

func chatCmd(log zerolog.Logger) *cobra.Command {
	var chatContext string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask a follow-up health question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			svc := buildService(cfg, buildChain(cfg, log), log)
			reply := svc.Chat(cmd.Context(), args[0], chatContext)
			fmt.Println(reply.Response)
			return nil
		},
	}

	cmd.Flags().StringVar(&chatContext, "context", "", "previous assessment context")
	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured providers in fallback order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tPROVIDER\tVISION\tSTATUS")
			for i, id := range cfg.Chain() {
				vision := "no"
				if id == provider.Gemini {
					vision = "yes"
				}
				marker := ""
				if id == cfg.DefaultProvider {
					marker = " (default)"
				}
				fmt.Fprintf(w, "%d\t%s%s\t%s\tconfigured\n", i+1, id, marker, vision)
			}
			for _, id := range provider.All() {
				if !cfg.HasProvider(id) {
					fmt.Fprintf(w, "-\t%s\t%s\tnot configured\n", id, strings.Repeat("-", 1))
				}
			}
			return w.Flush()
		},
	}
}
