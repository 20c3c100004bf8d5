package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-widget/internal/adapters/driven/postgres"
	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

var (
	reindexAsync  bool
	teardownAsync bool
	tokenAdmin    bool
	tokenSubject  string
)

var reindexCmd = &cobra.Command{
	Use:   "reindex <tenant-id>",
	Short: "Rebuild a tenant's vector namespace",
	Long: `Wipe the tenant's namespace and re-embed all of its content.

Per-item failures are reported but do not fail the run. A failed stage
(wipe, read, index or register) exits non-zero.

Examples:
  sercha-widget reindex 42
  sercha-widget reindex 42 --async`,
	Args: cobra.ExactArgs(1),
	RunE: runReindex,
}

var teardownCmd = &cobra.Command{
	Use:   "teardown <tenant-id>",
	Short: "Remove a tenant's vectors and content rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runTeardown,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  `Apply the embedded Postgres schema. Safe to run repeatedly.`,
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var tokenCmd = &cobra.Command{
	Use:   "token [tenant-id]",
	Short: "Issue an API token",
	Long: `Issue a bearer token for a tenant, or an operator token with --admin.

Examples:
  sercha-widget token 42
  sercha-widget token --admin --subject ops@example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runToken,
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexAsync, "async", false, "enqueue the reindex for the worker instead of running it here")
	teardownCmd.Flags().BoolVar(&teardownAsync, "async", false, "enqueue the teardown for the worker instead of running it here")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "issue an admin token")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject (defaults to the tenant id, or \"operator\" for admin tokens)")

	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(teardownCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	tenantID := args[0]
	if reindexAsync {
		taskID, err := a.reindex.ReindexAsync(cmd.Context(), tenantID)
		if err != nil {
			return err
		}
		printField(cmd, "task", taskID)
		return nil
	}

	result, err := a.reindex.Reindex(cmd.Context(), tenantID)
	if result != nil {
		printReindexResult(cmd, result)
	}
	return err
}

func printReindexResult(cmd *cobra.Command, result *domain.ReindexResult) {
	printField(cmd, "tenant", result.TenantID)
	printField(cmd, "status", result.Status)
	if result.FailedStage != "" {
		printField(cmd, "stage", result.FailedStage)
	}
	stats := result.Stats
	if stats == nil {
		return
	}
	printField(cmd, "total", stats.Total)
	printField(cmd, "added", stats.Added)
	printField(cmd, "errors", stats.Errors)
	printField(cmd, "duration", stats.Duration)
	for _, e := range stats.Details.Errors {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", e.ID, e.Error)
	}
}

func runTeardown(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	tenantID := args[0]
	if teardownAsync {
		taskID, err := a.teardown.TeardownAsync(cmd.Context(), tenantID)
		if err != nil {
			return err
		}
		printField(cmd, "task", taskID)
		return nil
	}

	if err := a.teardown.Teardown(cmd.Context(), tenantID); err != nil {
		if step := domain.FailedStep(err); step != "" {
			printField(cmd, "step", step)
		}
		return err
	}
	printField(cmd, "tenant", tenantID)
	printField(cmd, "status", "removed")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := postgres.Connect(cmd.Context(), postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.InitSchema(cmd.Context()); err != nil {
		return err
	}
	logger.Info("schema applied")
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var tenantID string
	if len(args) == 1 {
		tenantID = args[0]
	}

	role := domain.RoleTenant
	subject := tokenSubject
	if tokenAdmin {
		role = domain.RoleAdmin
		if subject == "" {
			subject = "operator"
		}
	}

	token, err := newAuthService(cfg).IssueToken(cmd.Context(), subject, tenantID, role)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
