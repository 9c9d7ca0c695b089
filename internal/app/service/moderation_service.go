package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

type ModerationService struct {
	rcon    RconAPI
	bans    BansAPI
	players PlayerRepo
	cfg     Configs
	notify  Notifier
}

func NewModerationService(rc RconAPI, bans BansAPI, players PlayerRepo, cfg Configs, n Notifier) *ModerationService {
	return &ModerationService{rcon: rc, bans: bans, players: players, cfg: cfg, notify: n}
}

// BanIfBlacklisted banea permanente si el jugador está en la blacklist.
func (s *ModerationService) BanIfBlacklisted(ctx context.Context, playerID, name string) error {
	p, err := s.players.GetPlayer(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Printf("[moderation] can't check blacklist, player not found %s", playerID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("blacklist lookup %s: %w", playerID, err)
	}
	if p.Blacklist == nil || !p.Blacklist.IsBlacklisted {
		return nil
	}

	reason := p.Blacklist.Reason
	by := "BLACKLIST: " + p.Blacklist.By
	log.Printf("[moderation] player %s banned due blacklist, reason: %s", name, reason)

	if err := s.rcon.PermaBan(ctx, name, playerID, reason, by); err != nil {
		s.audit(ctx, "Failed to apply ban on blacklisted players, please check the logs and report the error", "ERROR")
		return fmt.Errorf("blacklist ban %s: %w", playerID, err)
	}
	if err := s.players.SaveAction(ctx, storage.PlayerAction{
		PlayerID:   playerID,
		PlayerName: name,
		ActionType: "PERMABAN",
		Reason:     reason,
		By:         by,
	}); err != nil {
		log.Printf("[moderation] save action %s: %v", playerID, err)
	}
	s.audit(ctx, "`BLACKLIST` -> "+dictToDiscord("player", name, "reason", reason), "BLACKLIST")
	return nil
}

// BanIfHasVACBans aplica la regla de ShouldBan con la config vac_game_bans.
func (s *ModerationService) BanIfHasVACBans(ctx context.Context, playerID, name string) error {
	cfg, err := s.cfg.VacGameBans(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled() {
		return nil
	}

	p, err := s.players.GetPlayer(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Printf("[moderation] can't check VAC history, player not found %s", playerID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("vac lookup %s: %w", playerID, err)
	}

	bans, err := s.bans.GetPlayerBans(ctx, playerID)
	if err != nil || bans == nil {
		log.Printf("[moderation] can't fetch bans for player %s: %v", playerID, err)
		return nil
	}

	maxDays := cfg.VacHistoryDays
	if ShouldBan(bans, cfg.GameBanLimit(), maxDays, p.Flags, cfg.WhitelistFlags) != Ban {
		return nil
	}

	reason := strings.NewReplacer(
		"{DAYS_SINCE_LAST_BAN}", string(bans.DaysSinceLastBan),
		"{MAX_DAYS_SINCE_BAN}", strconv.Itoa(maxDays),
	).Replace(cfg.BanOnVacHistoryReason)
	log.Printf("[moderation] player %s (%s) banned due VAC history, last ban: %s days ago", name, playerID, bans.DaysSinceLastBan)

	if err := s.rcon.PermaBan(ctx, name, playerID, reason, "VAC BOT"); err != nil {
		return fmt.Errorf("vac ban %s: %w", playerID, err)
	}
	s.audit(ctx, "`VAC/GAME BAN` -> "+dictToDiscord(
		"player", name,
		"steam_id_64", playerID,
		"reason", reason,
		"days_since_last_ban", bans.DaysSinceLastBan,
		"vac_banned", bans.VACBanned,
		"number_of_game_bans", bans.NumberOfGameBans,
	), "AUTOBAN")
	return nil
}

// audit nunca falla hacia arriba.
func (s *ModerationService) audit(ctx context.Context, msg, by string) {
	if err := s.notify.Audit(ctx, msg, by); err != nil {
		log.Printf("[moderation] unable to send to audit (%s): %v", by, err)
	}
}
