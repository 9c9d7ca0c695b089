package service

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/hll-hooks/internal/adapters/rcon"
	"github.com/jose-valero/hll-hooks/internal/app/settings"
	"github.com/jose-valero/hll-hooks/internal/domain"
	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

// Lo implementa internal/adapters/rcon.Client
type RconAPI interface {
	GetMap(ctx context.Context) (string, error)
	GetGamestate(ctx context.Context) (domain.Gamestate, error)
	GetVIPsCount(ctx context.Context) (int, error)
	SetVIPSlotsNum(ctx context.Context, count int) error
	MessagePlayer(ctx context.Context, playerID, message, by string, save bool) error
	PermaBan(ctx context.Context, playerName, playerID, reason, by string) error
	GetBroadcast(ctx context.Context) (string, error)
	SetBroadcast(ctx context.Context, msg string) error
	GetWelcomeMessage(ctx context.Context) (string, error)
	SetWelcomeMessage(ctx context.Context, msg string) error
	GetMapRotation(ctx context.Context) ([]string, error)
	SetMapRotation(ctx context.Context, maps []string) error
	GetPlayers(ctx context.Context) ([]rcon.PlayerInfo, error)
	InvalidatePlayers(ctx context.Context) error
	InvalidatePlayerInfo(ctx context.Context, name string) error
}

// Lo implementa internal/adapters/steam.Client
type BansAPI interface {
	GetPlayerBans(ctx context.Context, steamID string) (*domain.BanInfo, error)
	GetPlayerSummary(ctx context.Context, steamID string) (*domain.SteamProfile, error)
}

// Lo implementa internal/infra/storage.PlayerRepo
type PlayerRepo interface {
	SavePlayer(ctx context.Context, playerID, name string, ts float64) error
	GetPlayer(ctx context.Context, playerID string) (storage.Player, error)
	StartSession(ctx context.Context, playerID string, ts float64) error
	EndSession(ctx context.Context, playerID string, ts float64) (bool, error)
	SaveAction(ctx context.Context, a storage.PlayerAction) error
	UpdateSteamInfo(ctx context.Context, playerID string, p domain.SteamProfile) error
}

// Lo implementa internal/infra/storage.MapHistoryRepo
type MapHistoryRepo interface {
	List(ctx context.Context, limit int) ([]domain.MapHistoryEntry, error)
	SaveNew(ctx context.Context, name string, start int64, guessed bool) (domain.MapHistoryEntry, error)
	SaveEnd(ctx context.Context, name string, end int64) (bool, error)
}

// Lo implementa internal/infra/storage.StatsRepo
type StatsRepo interface {
	RecordMap(ctx context.Context, m domain.MapHistoryEntry) (storage.MapStats, error)
}

// Lo implementa internal/adapters/discord.Notifier
type Notifier interface {
	Audit(ctx context.Context, message, by string) error
	EmbedURLs(ctx context.Context, urls []string, embed *discordgo.MessageEmbed) error
}

// Lo implementa internal/app/settings.Loader
type Configs interface {
	AutoModNoLeader(ctx context.Context) (settings.AutoModNoLeader, error)
	CameraNotification(ctx context.Context) (settings.CameraNotification, error)
	RealVip(ctx context.Context) (settings.RealVip, error)
	VacGameBans(ctx context.Context) (settings.VacGameBans, error)
	CameraWebhooks(ctx context.Context) (settings.CameraWebhooks, error)
	MessageOnConnect(ctx context.Context) (settings.MessageOnConnect, error)
	VoteMap(ctx context.Context) (settings.VoteMap, error)
}

// Lo implementa internal/app/timers.Registry
type Scheduler interface {
	Schedule(key string, delay time.Duration, fn func()) bool
	CancelPrefix(prefix string) int
}

// Lo implementa internal/infra/cache.VoteStore
type VoteStore interface {
	Clear(ctx context.Context) error
	SetSelection(ctx context.Context, maps []string) error
	Selection(ctx context.Context) ([]string, error)
	AddVote(ctx context.Context, playerID, mapName string) error
	Votes(ctx context.Context) (map[string]string, error)
	SetLastReminder(ctx context.Context, t time.Time) error
	LastReminder(ctx context.Context) (time.Time, error)
}
