package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jose-valero/hll-hooks/internal/app/settings"
	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

func newConfigCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or patch hook configs stored in user_configs",
	}
	cmd.PersistentFlags().StringVar(&dsn, "database-url", os.Getenv("DATABASE_URL"), "Postgres DSN")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "keys",
			Short: "List config keys",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				for _, k := range settings.Keys() {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
			},
		},
		&cobra.Command{
			Use:     "get <key>",
			Short:   "Print the effective config (stored values over defaults)",
			Args:    cobra.ExactArgs(1),
			Example: "  hookctl config get vac_game_bans",
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDB(cmd.Context(), dsn)
				if err != nil {
					return err
				}
				defer db.Close()

				raw, err := settings.NewLoader(storage.NewUserConfigRepo(db)).Raw(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			},
		},
		&cobra.Command{
			Use:     "set <key> <json-patch>",
			Short:   "Merge a partial JSON object into a config",
			Args:    cobra.ExactArgs(2),
			Example: `  hookctl config set real_vip '{"enabled": true, "desired_total_number_vips": 10}'`,
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDB(cmd.Context(), dsn)
				if err != nil {
					return err
				}
				defer db.Close()

				raw, err := settings.NewLoader(storage.NewUserConfigRepo(db)).Patch(cmd.Context(), args[0], []byte(args[1]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			},
		},
	)
	return cmd
}
