package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jhlee0409/cushion"
	"github.com/jhlee0409/cushion/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cushion",
	Short: "Response shock absorber",
	Long: `cushion reshapes JSON API responses into the shapes clients expect,
using per-URL field mapping rules declared under "cushions" in the config file.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	setupServeCmd()
	setupAbsorbCmd()
	setupMatchCmd()
}

func initConfig() {
	config.Init(cfgFile)
}

// newCushion builds a Cushion loaded with the configured rules and the
// plugins enabled under "plugins".
func newCushion(log *zap.Logger, opts ...cushion.Option) (*cushion.Cushion, error) {
	rules, err := config.LoadRules(nil)
	if err != nil {
		return nil, err
	}

	c := cushion.New(append([]cushion.Option{cushion.WithLogger(log)}, opts...)...)
	if err := c.LoadRules(rules); err != nil {
		return nil, fmt.Errorf("failed to load cushions: %w", err)
	}

	if viper.GetBool("plugins.request_logger") {
		if _, err := c.Use(cushion.RequestLogger()); err != nil {
			return nil, err
		}
	}
	if viper.GetBool("plugins.redact.enabled") {
		if _, err := c.Use(cushion.PIIGuard(viper.GetStringSlice("plugins.redact.paths")...)); err != nil {
			return nil, err
		}
	}

	log.Info("cushions loaded", zap.Int("rules", len(rules)), zap.Strings("plugins", c.Plugins()))
	return c, nil
}
