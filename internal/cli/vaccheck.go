package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jose-valero/hll-hooks/internal/adapters/steam"
	"github.com/jose-valero/hll-hooks/internal/app/service"
	"github.com/jose-valero/hll-hooks/internal/app/settings"
	"github.com/jose-valero/hll-hooks/internal/domain"
	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

type vacReport struct {
	PlayerID    string               `json:"player_id"`
	Verdict     string               `json:"verdict"`
	Bans        *domain.BanInfo      `json:"bans"`
	Config      settings.VacGameBans `json:"config"`
	PlayerFlags []string             `json:"player_flags,omitempty"`
}

// noConfigs: sin DB el Loader devuelve los defaults
type noConfigs struct{}

func (noConfigs) Get(ctx context.Context, key string) ([]byte, error) { return nil, storage.ErrNotFound }
func (noConfigs) Set(ctx context.Context, key string, v any) error {
	return errors.New("no database configured")
}

func evaluate(playerID string, bans *domain.BanInfo, cfg settings.VacGameBans, playerFlags []string) vacReport {
	v := service.ShouldBan(bans, cfg.GameBanLimit(), cfg.VacHistoryDays, playerFlags, cfg.WhitelistFlags)
	return vacReport{PlayerID: playerID, Verdict: v.String(), Bans: bans, Config: cfg, PlayerFlags: playerFlags}
}

func newVacCheckCmd() *cobra.Command {
	var (
		dsn        string
		steamKey   string
		steamBase  string
		days       int
		threshold  int
		whitelist  []string
		flags      []string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "vac-check <player_id>",
		Short: "Evaluate the VAC/game-ban rule for a player without banning",
		Long: `Fetches the player's Steam ban history and runs the same decision the
connect hook uses. With a database the stored vac_game_bans config and
the player's flags are used; --days, --game-ban-threshold and
--whitelist override them.`,
		Example: `  hookctl vac-check 76561198000000001
  hookctl vac-check 76561198000000001 --days 365 --game-ban-threshold 2 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			playerID := args[0]

			var src settings.Source = noConfigs{}
			if dsn != "" {
				db, err := openDB(ctx, dsn)
				if err != nil {
					return err
				}
				defer db.Close()

				src = storage.NewUserConfigRepo(db)
				if !cmd.Flags().Changed("flag") {
					p, err := storage.NewPlayerRepo(db).GetPlayer(ctx, playerID)
					if err != nil && !errors.Is(err, storage.ErrNotFound) {
						return err
					}
					flags = p.Flags
				}
			}
			cfg, err := settings.NewLoader(src).VacGameBans(ctx)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("days") {
				cfg.VacHistoryDays = days
			}
			if cmd.Flags().Changed("game-ban-threshold") {
				cfg.GameBanThreshold = threshold
			}
			if cmd.Flags().Changed("whitelist") {
				cfg.WhitelistFlags = whitelist
			}

			bans, err := steam.New(steamKey, steam.WithBaseURL(steamBase)).GetPlayerBans(ctx, playerID)
			if err != nil {
				return fmt.Errorf("steam bans: %w", err)
			}

			rep := evaluate(playerID, bans, cfg, flags)
			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			fmt.Fprintf(out, "Player:        %s\n", playerID)
			fmt.Fprintf(out, "Verdict:       %s\n", strings.ToUpper(rep.Verdict))
			fmt.Fprintf(out, "VAC banned:    %v (%s bans)\n", bans.VACBanned, bans.NumberOfVACBans)
			fmt.Fprintf(out, "Game bans:     %s\n", bans.NumberOfGameBans)
			fmt.Fprintf(out, "Last ban:      %s days ago\n", bans.DaysSinceLastBan)
			fmt.Fprintf(out, "Rule:          %d days, game ban threshold %d\n", cfg.VacHistoryDays, cfg.GameBanThreshold)
			if !cfg.Enabled() {
				fmt.Fprintln(out, "Note:          vac_history_days <= 0, the hook is disabled")
			}
			return nil
		},
	}

	dsnFlag(cmd, &dsn)
	cmd.Flags().StringVar(&steamKey, "steam-key", os.Getenv("STEAM_API_KEY"), "Steam Web API key")
	cmd.Flags().StringVar(&steamBase, "steam-base-url", "https://api.steampowered.com", "Steam Web API base URL")
	cmd.Flags().IntVar(&days, "days", 0, "max days since last ban")
	cmd.Flags().IntVar(&threshold, "game-ban-threshold", 0, "game bans that count as a ban (<= 0 ignores game bans)")
	cmd.Flags().StringSliceVar(&whitelist, "whitelist", nil, "flags that skip the check")
	cmd.Flags().StringSliceVar(&flags, "flag", nil, "player flags")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	_ = cmd.Flags().MarkHidden("steam-base-url")
	return cmd
}
