package main

import (
	"fmt"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jhlee0409/cushion"
	"github.com/jhlee0409/cushion/internal/config"
	"github.com/jhlee0409/cushion/internal/pkg/logger"
	"github.com/jhlee0409/cushion/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the cushion reverse proxy",
	Long:  `Proxy an upstream API and absorb its JSON responses through the configured cushions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		globalLogger, err := logger.New(viper.GetString("log.level"))
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer globalLogger.Sync()

		rawUpstream := viper.GetString("server.upstream")
		if rawUpstream == "" {
			return fmt.Errorf("an upstream is required (--upstream or server.upstream)")
		}
		upstream, err := url.Parse(rawUpstream)
		if err != nil || upstream.Scheme == "" || upstream.Host == "" {
			return fmt.Errorf("invalid upstream %q", rawUpstream)
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		c, err := newCushion(globalLogger, cushion.WithRecorder(cushion.NewPrometheusRecorder(reg)))
		if err != nil {
			return err
		}

		if viper.GetBool("server.watch") {
			config.Watch(nil, globalLogger, func(rules cushion.Rules) {
				if err := c.ReplaceRules(rules); err != nil {
					globalLogger.Error("rejected reloaded cushions, keeping current rules", zap.Error(err))
				}
			})
		}

		addr := fmt.Sprintf("%s:%d", viper.GetString("server.host"), viper.GetInt("server.port"))
		srv := server.NewHTTPServer(server.ProxyConfig{
			Addr:      addr,
			Upstream:  upstream,
			Transport: c.Transport(nil),
			Gatherer:  reg,
		}, globalLogger)

		globalLogger.Info("proxying", zap.String("addr", addr), logger.URL(srv.Upstream().String()))
		return srv.Start()
	},
}

func setupServeCmd() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Server port")
	serveCmd.Flags().StringP("host", "H", "0.0.0.0", "Server host")
	serveCmd.Flags().StringP("upstream", "u", "", "Upstream base URL")
	serveCmd.Flags().Bool("watch", false, "Reload cushions when the config file changes")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.upstream", serveCmd.Flags().Lookup("upstream"))
	viper.BindPFlag("server.watch", serveCmd.Flags().Lookup("watch"))
}
