package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"quorum/internal/backend"
	"quorum/internal/config"
	"quorum/internal/engine"
	"quorum/internal/history"
	"quorum/internal/logging"
	"quorum/internal/metrics"
	"quorum/internal/panel"
	"quorum/internal/prompts"
	"quorum/internal/schema"
	"quorum/internal/seat"
)

var modeSummaries = map[string]string{
	"review":   "Review an idea or plan",
	"decide":   "Decide between two options",
	"audit":    "Audit current work or strategy",
	"creative": "Pressure-test a creative direction",
}

func newRoundCmd(modeName string, cfgFile *string) *cobra.Command {
	var optionA, optionB, contextText string
	var withHistory int

	cmd := &cobra.Command{
		Use:   modeName + " <request>",
		Short: modeSummaries[modeName],
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, *cfgFile)
			if err != nil {
				return err
			}

			mode, err := schema.ParseMode(modeName)
			if err != nil {
				return err
			}
			reqContext := contextText
			if withHistory > 0 {
				digest, err := priorDecisions(cfg, withHistory)
				if err != nil {
					return err
				}
				if digest != "" {
					if reqContext != "" {
						reqContext = digest + "\n\n" + reqContext
					} else {
						reqContext = digest
					}
				}
			}

			req := schema.Request{
				Mode:      mode,
				Text:      strings.Join(args, " "),
				Context:   reqContext,
				OptionA:   optionA,
				OptionB:   optionB,
				ProjectID: cfg.ProjectID,
			}

			eng, collector, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = collector.Shutdown(cmd.Context())
			}()

			rep, err := eng.RunRound(cmd.Context(), req)
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			return render(cmd.OutOrStdout(), rep, asJSON)
		},
	}

	if modeName == "decide" {
		cmd.Flags().StringVar(&optionA, "option-a", "", "first option under decision (required)")
		cmd.Flags().StringVar(&optionB, "option-b", "", "second option under decision (required)")
		_ = cmd.MarkFlagRequired("option-a")
		_ = cmd.MarkFlagRequired("option-b")
	}
	cmd.Flags().StringVar(&contextText, "context", "", "extra background for the board")
	cmd.Flags().IntVar(&withHistory, "with-history", 0, "prepend up to N past decisions for the project to the request context")

	return cmd
}

// priorDecisions loads the most recent archived rounds for the configured
// project and renders them as context text.
func priorDecisions(cfg config.RuntimeConfig, limit int) (string, error) {
	store, err := history.New(cfg.HistoryDir, logging.NewComponentLogger("History"))
	if err != nil {
		return "", err
	}
	records, err := store.List(cfg.ProjectID)
	if err != nil {
		return "", fmt.Errorf("load past decisions: %w", err)
	}
	return history.Digest(records, limit), nil
}

// buildEngine assembles the production engine from resolved configuration.
func buildEngine(cfg config.RuntimeConfig) (*engine.Engine, *metrics.Collector, error) {
	if cfg.Verbose {
		logging.SetLevel(logging.DEBUG)
	}
	logger := logging.NewComponentLogger("Engine")

	p := panel.Default()
	if cfg.PanelFile != "" {
		loaded, err := panel.LoadFile(cfg.PanelFile)
		if err != nil {
			return nil, nil, err
		}
		p = loaded
	}

	be, err := backend.NewHTTPBackend(backend.Config{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.SeatTimeout(),
	})
	if err != nil {
		return nil, nil, err
	}

	loader, err := prompts.NewLoader()
	if err != nil {
		return nil, nil, err
	}

	store, err := history.New(cfg.HistoryDir, logging.NewComponentLogger("History"))
	if err != nil {
		return nil, nil, err
	}

	var collector *metrics.Collector
	if cfg.MetricsPort > 0 {
		collector, err = metrics.New("quorum", nil)
		if err != nil {
			return nil, nil, err
		}
		if err := collector.Serve(cfg.MetricsPort); err != nil {
			return nil, nil, fmt.Errorf("start metrics endpoint: %w", err)
		}
	}

	eng, err := engine.New(engine.Options{
		Panel:          p,
		Runner:         seat.NewRunner(be, loader, loader.Philosophy(), logging.NewComponentLogger("Seat")),
		SeatTimeout:    cfg.SeatTimeout(),
		OverallTimeout: cfg.OverallTimeout(),
		History:        store,
		Metrics:        collector,
		Logger:         logger,
		ProjectID:      cfg.ProjectID,
	})
	if err != nil {
		return nil, nil, err
	}
	return eng, collector, nil
}
