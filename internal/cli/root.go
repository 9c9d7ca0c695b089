package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

// NewRootCmd arma hookctl.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hookctl",
		Short: "Admin tool for the HLL hooks bot",
		Long: `hookctl runs migrations, edits hook configs, checks a player's
Steam ban history against the VAC rule and replays recorded log lines
into a running bot.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newConfigCmd(),
		newVacCheckCmd(),
		newReplayCmd(),
	)
	return root
}

// dsnFlag agrega --database-url con default DATABASE_URL.
func dsnFlag(cmd *cobra.Command, dsn *string) {
	cmd.Flags().StringVar(dsn, "database-url", os.Getenv("DATABASE_URL"), "Postgres DSN")
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("--database-url (or DATABASE_URL) is required")
	}
	return storage.Open(ctx, dsn)
}
