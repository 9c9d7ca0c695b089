package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

func newMigrateCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, revert or list the embedded goose migrations",
		Example:   "  hookctl migrate up\n  hookctl migrate status --database-url postgres://...",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			switch args[0] {
			case "up":
				return storage.Migrate(db)
			case "down":
				return storage.MigrateDown(db)
			case "status":
				return storage.MigrationStatus(db)
			}
			return fmt.Errorf("unknown direction %q (want up, down or status)", args[0])
		},
	}
	dsnFlag(cmd, &dsn)
	return cmd
}
