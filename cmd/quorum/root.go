package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"quorum/internal/config"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "quorum",
		Short: "Run a request past a fixed board of evaluators",
		Long: "quorum fans a request out to a fixed seven-seat board, validates each\n" +
			"seat's structured response, and folds the verdicts into one arbitrated\n" +
			"decision with a confidence score and a rule trace.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: quorum.yaml in ~/.quorum or .)")
	rootCmd.PersistentFlags().String("model", "", "model to evaluate with")
	rootCmd.PersistentFlags().String("base-url", "", "API base URL")
	rootCmd.PersistentFlags().String("api-key", "", "API key (or QUORUM_API_KEY / OPENAI_API_KEY)")
	rootCmd.PersistentFlags().String("panel-file", "", "YAML panel definition (default: built-in 7-seat board)")
	rootCmd.PersistentFlags().String("history-dir", "", "directory for archived rounds")
	rootCmd.PersistentFlags().String("project-id", "", "project tag for archived rounds")
	rootCmd.PersistentFlags().Int("metrics-port", 0, "serve Prometheus metrics on this port (0 disables)")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose logging")
	rootCmd.PersistentFlags().Bool("json", false, "print the raw report as JSON")

	for _, mode := range []string{"review", "decide", "audit", "creative"} {
		rootCmd.AddCommand(newRoundCmd(mode, &cfgFile))
	}
	rootCmd.AddCommand(newHistoryCmd(&cfgFile))

	return rootCmd
}

// resolveConfig layers defaults, the discovered config file, QUORUM_*
// environment variables, and explicit flags, in that order.
func resolveConfig(cmd *cobra.Command, cfgFile string) (config.RuntimeConfig, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("quorum")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.quorum")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("QUORUM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	flagToKey := map[string]string{
		"model":        "model",
		"base-url":     "base_url",
		"api-key":      "api_key",
		"panel-file":   "panel_file",
		"history-dir":  "history_dir",
		"project-id":   "project_id",
		"metrics-port": "metrics_port",
		"verbose":      "verbose",
	}
	for flag, key := range flagToKey {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			f = cmd.InheritedFlags().Lookup(flag)
		}
		if f == nil {
			return config.RuntimeConfig{}, fmt.Errorf("flag %s is not defined", flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return config.RuntimeConfig{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	defaults := config.Default()
	v.SetDefault("model", defaults.Model)
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("temperature", defaults.Temperature)
	v.SetDefault("seat_timeout_seconds", defaults.SeatTimeoutSeconds)
	v.SetDefault("overall_timeout_seconds", defaults.OverallTimeoutSeconds)
	v.SetDefault("history_dir", defaults.HistoryDir)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return config.RuntimeConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := config.RuntimeConfig{
		Model:                 v.GetString("model"),
		BaseURL:               v.GetString("base_url"),
		APIKey:                v.GetString("api_key"),
		Temperature:           v.GetFloat64("temperature"),
		SeatTimeoutSeconds:    v.GetInt("seat_timeout_seconds"),
		OverallTimeoutSeconds: v.GetInt("overall_timeout_seconds"),
		PanelFile:             v.GetString("panel_file"),
		HistoryDir:            v.GetString("history_dir"),
		ProjectID:             v.GetString("project_id"),
		MetricsPort:           v.GetInt("metrics_port"),
		Verbose:               v.GetBool("verbose"),
	}
	if cfg.APIKey == "" {
		// OPENAI_API_KEY keeps existing provider setups working unchanged.
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return config.RuntimeConfig{}, err
	}
	return cfg, nil
}
