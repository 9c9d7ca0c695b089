package service

import (
	"github.com/jose-valero/hll-hooks/internal/app/events"
	"github.com/jose-valero/hll-hooks/internal/clock"
	"github.com/jose-valero/hll-hooks/internal/domain"
)

// Deps es todo lo que necesitan los hooks.
type Deps struct {
	Rcon     RconAPI
	Bans     BansAPI
	Players  PlayerRepo
	History  MapHistoryRepo
	Stats    StatsRepo
	Votes    VoteStore
	Configs  Configs
	Notifier Notifier
	Timers   Scheduler
	Clock    clock.Clock
}

type Hooks struct {
	Moderation *ModerationService
	Sessions   *SessionService
	Maps       *MapService
	VoteMaps   *VoteMapService
	Notify     *NotifyService
	VIPs       *VIPService
}

func NewHooks(d Deps) *Hooks {
	if d.Clock == nil {
		d.Clock = clock.NewReal()
	}
	mod := NewModerationService(d.Rcon, d.Bans, d.Players, d.Configs, d.Notifier)
	votes := NewVoteMapService(d.Rcon, d.Votes, d.Configs, d.History, d.Clock)
	return &Hooks{
		Moderation: mod,
		Sessions:   NewSessionService(d.Rcon, d.Bans, d.Players, mod, d.Timers),
		Maps:       NewMapService(d.Rcon, d.History, d.Stats, votes, d.Clock),
		VoteMaps:   votes,
		Notify:     NewNotifyService(d.Rcon, d.Configs, d.Notifier, d.Timers),
		VIPs:       NewVIPService(d.Rcon, d.Configs),
	}
}

// Register cuelga los handlers del router. El orden dentro de cada tipo
// es el orden de ejecución.
func (h *Hooks) Register(sub events.Subscriber) {
	sub.Subscribe(domain.EventChat, "count_vote", h.VoteMaps.CountVote)

	sub.Subscribe(domain.EventMatchEnded, "remind_vote_map", h.VoteMaps.OnMatchEnded)
	sub.Subscribe(domain.EventMatchEnded, "record_map_end", h.Maps.OnMatchEnd)

	sub.Subscribe(domain.EventMatchStart, "record_map_start", h.Maps.OnMatchStart)

	sub.Subscribe(domain.EventConnected, "handle_on_connect", h.Sessions.OnConnected)
	sub.Subscribe(domain.EventConnected, "update_steam_info", h.Sessions.UpdateSteamInfo)
	sub.Subscribe(domain.EventConnected, "notify_false_positives", h.Notify.NotifyFalsePositives)
	sub.Subscribe(domain.EventConnected, "real_vip", h.VIPs.SetRealVIPs)
	sub.Subscribe(domain.EventConnected, "message_on_connect", h.Notify.MessageOnConnect)

	sub.Subscribe(domain.EventDisconnected, "handle_on_disconnect", h.Sessions.OnDisconnected)
	sub.Subscribe(domain.EventDisconnected, "cleanup_pending_timers", h.Sessions.CleanupPendingTimers)
	sub.Subscribe(domain.EventDisconnected, "real_vip", h.VIPs.SetRealVIPs)

	sub.Subscribe(domain.EventCamera, "notify_camera", h.Notify.NotifyCamera)
}
