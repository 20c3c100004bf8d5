package main

// @title           Sercha Widget Indexing API
// @version         1.0
// @description     Content indexing and vector store sync for the Sercha chat widget. Rebuilds a tenant's vector namespace from its content rows and tears tenants down.

// @contact.name   Sercha OSS
// @contact.url    https://github.com/custodia-labs/sercha-widget/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-widget/internal/config"
)

var (
	version = "dev"

	// configPath is the optional YAML config file
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sercha-widget",
	Short: "Content indexing and vector sync for the Sercha chat widget",
	Long: `sercha-widget rebuilds each tenant's vector namespace from the content
rows stored in Postgres and removes tenants on request.

Configuration is read from an optional YAML file and from SERCHA_-prefixed
environment variables, for example SERCHA_DATABASE_URL or SERCHA_QDRANT_HOST.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
}

// loadConfig loads configuration and installs the root logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", "sercha-widget", "version", version)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// printField writes one aligned "label: value" line.
func printField(cmd *cobra.Command, label string, value any) {
	fmt.Fprintf(cmd.OutOrStdout(), "%-10s %v\n", label+":", value)
}
