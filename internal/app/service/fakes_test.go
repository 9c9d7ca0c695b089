package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/hll-hooks/internal/adapters/rcon"
	"github.com/jose-valero/hll-hooks/internal/app/settings"
	"github.com/jose-valero/hll-hooks/internal/app/timers"
	"github.com/jose-valero/hll-hooks/internal/clock"
	"github.com/jose-valero/hll-hooks/internal/domain"
	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

var epoch = time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

// ---- rcon ----

type sentMessage struct {
	PlayerID, Message, By string
}

type permaBan struct {
	Name, PlayerID, Reason, By string
}

type fakeRcon struct {
	mu sync.Mutex

	currentMap    string
	mapErr        error
	gamestate     domain.Gamestate
	vipCount      int
	vipSlots      []int
	broadcast     string
	welcome       string
	rotation      []string
	setRotations  [][]string
	players       []rcon.PlayerInfo
	messages      []sentMessage
	bans          []permaBan
	banErr        error
	invalidations int
	info          map[string]rcon.PlayerInfo
	infoCalls     int
}

func (f *fakeRcon) GetMap(ctx context.Context) (string, error) {
	return f.currentMap, f.mapErr
}

func (f *fakeRcon) GetGamestate(ctx context.Context) (domain.Gamestate, error) {
	return f.gamestate, nil
}

func (f *fakeRcon) GetVIPsCount(ctx context.Context) (int, error) { return f.vipCount, nil }

func (f *fakeRcon) SetVIPSlotsNum(ctx context.Context, count int) error {
	f.vipSlots = append(f.vipSlots, count)
	return nil
}

func (f *fakeRcon) MessagePlayer(ctx context.Context, playerID, message, by string, save bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, sentMessage{playerID, message, by})
	return nil
}

func (f *fakeRcon) PermaBan(ctx context.Context, playerName, playerID, reason, by string) error {
	if f.banErr != nil {
		return f.banErr
	}
	f.bans = append(f.bans, permaBan{playerName, playerID, reason, by})
	return nil
}

func (f *fakeRcon) GetBroadcast(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.broadcast, nil
}
func (f *fakeRcon) SetBroadcast(ctx context.Context, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast = msg
	return nil
}
func (f *fakeRcon) GetWelcomeMessage(ctx context.Context) (string, error) { return f.welcome, nil }
func (f *fakeRcon) SetWelcomeMessage(ctx context.Context, msg string) error {
	f.welcome = msg
	return nil
}
func (f *fakeRcon) GetMapRotation(ctx context.Context) ([]string, error) { return f.rotation, nil }
func (f *fakeRcon) SetMapRotation(ctx context.Context, maps []string) error {
	f.setRotations = append(f.setRotations, maps)
	return nil
}
func (f *fakeRcon) GetPlayers(ctx context.Context) ([]rcon.PlayerInfo, error) { return f.players, nil }
func (f *fakeRcon) GetPlayerInfo(ctx context.Context, name string) (rcon.PlayerInfo, error) {
	f.infoCalls++
	p, ok := f.info[name]
	if !ok {
		return rcon.PlayerInfo{}, rcon.ErrNotFound
	}
	return p, nil
}
func (f *fakeRcon) InvalidatePlayers(ctx context.Context) error {
	f.invalidations++
	return nil
}
func (f *fakeRcon) InvalidatePlayerInfo(ctx context.Context, name string) error {
	f.invalidations++
	return nil
}

func (f *fakeRcon) sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.messages...)
}

// ---- steam ----

type fakeBans struct {
	bans    map[string]*domain.BanInfo
	profile *domain.SteamProfile
}

func (f *fakeBans) GetPlayerBans(ctx context.Context, id string) (*domain.BanInfo, error) {
	b, ok := f.bans[id]
	if !ok {
		return nil, errors.New("no bans")
	}
	return b, nil
}

func (f *fakeBans) GetPlayerSummary(ctx context.Context, id string) (*domain.SteamProfile, error) {
	if f.profile == nil {
		return nil, errors.New("no profile")
	}
	return f.profile, nil
}

// ---- players ----

type fakePlayers struct {
	players  map[string]storage.Player
	open     map[string]storage.Session
	sessions []string
	ended    []string
	actions  []storage.PlayerAction
	steam    map[string]domain.SteamProfile
	saveErr  error
}

func newFakePlayers() *fakePlayers {
	return &fakePlayers{players: map[string]storage.Player{}, open: map[string]storage.Session{}, steam: map[string]domain.SteamProfile{}}
}

func (f *fakePlayers) SavePlayer(ctx context.Context, id, name string, ts float64) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	p := f.players[id]
	p.PlayerID, p.Name = id, name
	f.players[id] = p
	return nil
}

func (f *fakePlayers) GetPlayer(ctx context.Context, id string) (storage.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return storage.Player{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakePlayers) StartSession(ctx context.Context, id string, ts float64) error {
	f.sessions = append(f.sessions, id)
	return nil
}

func (f *fakePlayers) OpenSession(ctx context.Context, id string) (storage.Session, error) {
	s, ok := f.open[id]
	if !ok {
		return storage.Session{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakePlayers) EndSession(ctx context.Context, id string, ts float64) (bool, error) {
	f.ended = append(f.ended, id)
	return true, nil
}

func (f *fakePlayers) SaveAction(ctx context.Context, a storage.PlayerAction) error {
	f.actions = append(f.actions, a)
	return nil
}

func (f *fakePlayers) Blacklist(ctx context.Context, id, reason, by string) error {
	p := f.players[id]
	p.Blacklist = &storage.Blacklist{IsBlacklisted: true, Reason: reason, By: by}
	f.players[id] = p
	return nil
}

func (f *fakePlayers) Unblacklist(ctx context.Context, id string) error {
	p := f.players[id]
	if p.Blacklist != nil {
		p.Blacklist.IsBlacklisted = false
	}
	f.players[id] = p
	return nil
}

func (f *fakePlayers) SetFlags(ctx context.Context, id string, flags []string) error {
	p, ok := f.players[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.Flags = flags
	f.players[id] = p
	return nil
}

func (f *fakePlayers) UpdateSteamInfo(ctx context.Context, id string, p domain.SteamProfile) error {
	f.steam[id] = p
	return nil
}

// ---- map history ----

type fakeHistory struct {
	entries []domain.MapHistoryEntry // más nuevo primero
	nextID     int64
	listErr    error
	saveNewErr error
}

func (f *fakeHistory) List(ctx context.Context, limit int) ([]domain.MapHistoryEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return append([]domain.MapHistoryEntry(nil), f.entries[:limit]...), nil
}

func (f *fakeHistory) SaveNew(ctx context.Context, name string, start int64, guessed bool) (domain.MapHistoryEntry, error) {
	if f.saveNewErr != nil {
		return domain.MapHistoryEntry{}, f.saveNewErr
	}
	f.nextID++
	e := domain.MapHistoryEntry{ID: f.nextID, Name: name, Start: start, Guessed: guessed}
	f.entries = append([]domain.MapHistoryEntry{e}, f.entries...)
	return e, nil
}

func (f *fakeHistory) SaveEnd(ctx context.Context, name string, end int64) (bool, error) {
	for i := range f.entries {
		if f.entries[i].Name == name && f.entries[i].End == nil {
			f.entries[i].End = &end
			return true, nil
		}
	}
	return false, nil
}

type fakeStats struct {
	recorded []domain.MapHistoryEntry
}

func (f *fakeStats) RecordMap(ctx context.Context, m domain.MapHistoryEntry) (storage.MapStats, error) {
	if m.End == nil {
		return storage.MapStats{}, errors.New("map still running")
	}
	f.recorded = append(f.recorded, m)
	return storage.MapStats{MapHistoryID: m.ID, MapName: m.Name}, nil
}

// ---- votes ----

type fakeVotes struct {
	selection    []string
	votes        map[string]string
	lastReminder time.Time
}

func newFakeVotes() *fakeVotes { return &fakeVotes{votes: map[string]string{}} }

func (f *fakeVotes) Clear(ctx context.Context) error {
	f.votes = map[string]string{}
	return nil
}
func (f *fakeVotes) SetSelection(ctx context.Context, maps []string) error {
	f.selection = append([]string(nil), maps...)
	return nil
}
func (f *fakeVotes) Selection(ctx context.Context) ([]string, error) { return f.selection, nil }
func (f *fakeVotes) AddVote(ctx context.Context, playerID, mapName string) error {
	f.votes[playerID] = mapName
	return nil
}
func (f *fakeVotes) Votes(ctx context.Context) (map[string]string, error) { return f.votes, nil }
func (f *fakeVotes) SetLastReminder(ctx context.Context, t time.Time) error {
	f.lastReminder = t
	return nil
}
func (f *fakeVotes) LastReminder(ctx context.Context) (time.Time, error) { return f.lastReminder, nil }

// ---- notifier ----

type audit struct{ Message, By string }

type fakeNotifier struct {
	mu     sync.Mutex
	audits []audit
	embeds []*discordgo.MessageEmbed
	err    error
}

func (f *fakeNotifier) Audit(ctx context.Context, message, by string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, audit{message, by})
	return f.err
}

func (f *fakeNotifier) EmbedURLs(ctx context.Context, urls []string, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds = append(f.embeds, embed)
	return f.err
}

// ---- configs ----

type memConfigs map[string][]byte

func (m memConfigs) Get(ctx context.Context, key string) ([]byte, error) {
	b, ok := m[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (m memConfigs) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m[key] = b
	return nil
}

// ---- harness ----

type harness struct {
	vc      *clock.Virtual
	rcon    *fakeRcon
	bans    *fakeBans
	players *fakePlayers
	history *fakeHistory
	stats   *fakeStats
	votes   *fakeVotes
	notify  *fakeNotifier
	configs memConfigs
	timers  *timers.Registry
	hooks   *Hooks
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	vc := clock.NewVirtual(epoch)
	h := &harness{
		vc:      vc,
		rcon:    &fakeRcon{currentMap: "foy_warfare"},
		bans:    &fakeBans{bans: map[string]*domain.BanInfo{}},
		players: newFakePlayers(),
		history: &fakeHistory{},
		stats:   &fakeStats{},
		votes:   newFakeVotes(),
		notify:  &fakeNotifier{},
		configs: memConfigs{},
		timers:  timers.NewRegistry(vc),
	}
	h.hooks = NewHooks(Deps{
		Rcon:     h.rcon,
		Bans:     h.bans,
		Players:  h.players,
		History:  h.history,
		Stats:    h.stats,
		Votes:    h.votes,
		Configs:  settings.NewLoader(h.configs),
		Notifier: h.notify,
		Timers:   h.timers,
		Clock:    vc,
	})
	return h
}

func (h *harness) setConfig(t *testing.T, key string, v any) {
	t.Helper()
	require.NoError(t, h.configs.Set(context.Background(), key, v))
}

// event arma un evento con timestamp = ahora - age.
func (h *harness) event(kind domain.EventKind, age time.Duration) domain.LogEvent {
	return domain.LogEvent{Kind: kind, TimestampMS: h.vc.Now().Add(-age).UnixMilli()}
}
