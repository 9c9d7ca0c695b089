package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jose-valero/hll-hooks/internal/adapters/steam"
	"github.com/jose-valero/hll-hooks/internal/domain"
)

type SessionService struct {
	rcon    RconAPI
	bans    BansAPI
	players PlayerRepo
	mod     *ModerationService
	timers  Scheduler
}

func NewSessionService(rc RconAPI, bans BansAPI, players PlayerRepo, mod *ModerationService, timers Scheduler) *SessionService {
	return &SessionService{rcon: rc, bans: bans, players: players, mod: mod, timers: timers}
}

func eventSeconds(evt domain.LogEvent) float64 {
	return float64(evt.TimestampMS) / 1000
}

// OnConnected guarda jugador + sesión y después corre blacklist y VAC
// (los dos siempre, en ese orden).
func (s *SessionService) OnConnected(ctx context.Context, evt domain.LogEvent) error {
	if err := s.rcon.InvalidatePlayers(ctx); err != nil {
		log.Printf("[sessions] unable to clear players cache: %v", err)
	}
	if err := s.rcon.InvalidatePlayerInfo(ctx, evt.Player); err != nil {
		log.Printf("[sessions] unable to clear player info cache for %q: %v", evt.Player, err)
	}

	if evt.PlayerID == "" {
		log.Printf("[sessions] ERROR unable to get player id for %q, can't process connection", evt.Player)
		return nil
	}

	ts := eventSeconds(evt)
	if err := s.players.SavePlayer(ctx, evt.PlayerID, evt.Player, ts); err != nil {
		return fmt.Errorf("save player %s: %w", evt.PlayerID, err)
	}
	if err := s.players.StartSession(ctx, evt.PlayerID, ts); err != nil {
		return fmt.Errorf("start session %s: %w", evt.PlayerID, err)
	}

	errBlacklist := s.mod.BanIfBlacklisted(ctx, evt.PlayerID, evt.Player)
	errVAC := s.mod.BanIfHasVACBans(ctx, evt.PlayerID, evt.Player)
	return errors.Join(errBlacklist, errVAC)
}

func (s *SessionService) OnDisconnected(ctx context.Context, evt domain.LogEvent) error {
	if evt.PlayerID == "" {
		log.Printf("[sessions] disconnect without player id for %q", evt.Player)
		return nil
	}
	closed, err := s.players.EndSession(ctx, evt.PlayerID, eventSeconds(evt))
	if err != nil {
		return fmt.Errorf("end session %s: %w", evt.PlayerID, err)
	}
	if !closed {
		log.Printf("[sessions] no open session for %s", evt.PlayerID)
	}
	return nil
}

// CleanupPendingTimers cancela todo lo diferido para el jugador.
func (s *SessionService) CleanupPendingTimers(ctx context.Context, evt domain.LogEvent) error {
	if evt.PlayerID == "" {
		return nil
	}
	if n := s.timers.CancelPrefix(timerKeyPrefix(evt.PlayerID)); n > 0 {
		log.Printf("[sessions] cancelled %d pending timer(s) for %s", n, evt.PlayerID)
	}
	return nil
}

// UpdateSteamInfo refresca el perfil de Steam del jugador.
func (s *SessionService) UpdateSteamInfo(ctx context.Context, evt domain.LogEvent) error {
	if evt.PlayerID == "" {
		log.Printf("[sessions] can't update steam info, no player id for %q", evt.Player)
		return nil
	}
	profile, err := s.bans.GetPlayerSummary(ctx, evt.PlayerID)
	switch {
	case errors.Is(err, steam.ErrNotSteamID), errors.Is(err, steam.ErrNoAPIKey):
		return nil
	case err != nil || profile == nil:
		log.Printf("[sessions] can't update steam info, no steam profile returned for %q: %v", evt.Player, err)
		return nil
	}

	log.Printf("[sessions] updating steam profile for player %q", evt.Player)
	return s.players.UpdateSteamInfo(ctx, evt.PlayerID, *profile)
}
