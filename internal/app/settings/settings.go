package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

// Claves en user_configs.
const (
	KeyAutoModNoLeader    = "auto_mod_no_leader"
	KeyCameraNotification = "camera_notification"
	KeyRealVip            = "real_vip"
	KeyVacGameBans        = "vac_game_bans"
	KeyCameraWebhooks     = "camera_webhooks"
	KeyMessageOnConnect   = "message_on_connect"
	KeyVoteMap            = "vote_map"
)

var ErrUnknownKey = errors.New("unknown config key")

type AutoModNoLeader struct {
	Enabled           bool   `json:"enabled"`
	WhitespaceMessage string `json:"whitespace_message"`
}

type CameraNotification struct {
	Broadcast bool `json:"broadcast"`
	Welcome   bool `json:"welcome"`
}

type RealVip struct {
	Enabled                bool `json:"enabled"`
	DesiredTotalNumberVIPs int  `json:"desired_total_number_vips"`
	MinimumNumberVIPSlots  int  `json:"minimum_number_vip_slots"`
}

// Slots = max(desired - vipCount, max(min, 0))
func (c RealVip) Slots(vipCount int) int {
	return max(c.DesiredTotalNumberVIPs-vipCount, max(c.MinimumNumberVIPSlots, 0))
}

type VacGameBans struct {
	// <= 0 apaga el feature
	VacHistoryDays        int      `json:"vac_history_days"`
	GameBanThreshold      int      `json:"game_ban_threshold"`
	WhitelistFlags        []string `json:"whitelist_flags"`
	BanOnVacHistoryReason string   `json:"ban_on_vac_history_reason"`
}

func (c VacGameBans) Enabled() bool { return c.VacHistoryDays > 0 }

// GameBanLimit: un threshold <= 0 no cuenta los game bans (límite infinito).
func (c VacGameBans) GameBanLimit() float64 {
	if c.GameBanThreshold <= 0 {
		return math.Inf(1)
	}
	return float64(c.GameBanThreshold)
}

type CameraWebhooks struct {
	URLs []string `json:"urls"`
}

type MessageOnConnect struct {
	Enabled         bool   `json:"enabled"`
	SeedLimit       int    `json:"seed_limit"`
	SeedTimeText    string `json:"seed_time_text"`
	NonSeedTimeText string `json:"non_seed_time_text"`
}

// Text elige el mensaje según la cantidad de jugadores conectados.
func (c MessageOnConnect) Text(players int) string {
	if players < c.SeedLimit {
		return c.SeedTimeText
	}
	return c.NonSeedTimeText
}

type VoteMap struct {
	Enabled              bool     `json:"enabled"`
	NumOptions           int      `json:"num_options"`
	Whitelist            []string `json:"whitelist"`
	ExcludeLastN         int      `json:"exclude_last_n"`
	ReminderIntervalSecs int      `json:"reminder_interval_secs"`
	ReminderText         string   `json:"reminder_text"`
}

// Source lo implementa storage.UserConfigRepo
type Source interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, v any) error
}

// Loader lee siempre de la DB: los cambios desde la web aplican en el próximo evento.
type Loader struct {
	src Source
}

func NewLoader(src Source) *Loader { return &Loader{src: src} }

func defaults() map[string]any {
	return map[string]any{
		KeyAutoModNoLeader: AutoModNoLeader{
			WhitespaceMessage: "Your name ends with a space. If you become squad leader your squad will be flagged as leaderless. Please remove the trailing space from your name.",
		},
		KeyCameraNotification: CameraNotification{},
		KeyRealVip:            RealVip{DesiredTotalNumberVIPs: 2, MinimumNumberVIPSlots: 1},
		KeyVacGameBans: VacGameBans{
			BanOnVacHistoryReason: "VAC ban history ({DAYS_SINCE_LAST_BAN} days ago), max allowed: {MAX_DAYS_SINCE_BAN} days",
			WhitelistFlags:        []string{},
		},
		KeyCameraWebhooks: CameraWebhooks{URLs: []string{}},
		KeyMessageOnConnect: MessageOnConnect{
			SeedLimit:       40,
			SeedTimeText:    "Welcome! We are seeding, thanks for helping out.",
			NonSeedTimeText: "Welcome! Have a good game.",
		},
		KeyVoteMap: VoteMap{
			NumOptions:           5,
			ExcludeLastN:         3,
			ReminderIntervalSecs: 600,
			ReminderText:         "Vote for the next map with !votemap <number>:",
			Whitelist:            []string{},
		},
	}
}

// Keys devuelve las claves conocidas, ordenadas.
func Keys() []string {
	d := defaults()
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// load decodifica lo guardado encima de los defaults: campos que faltan
// en el JSON quedan con su valor por defecto.
func load[T any](ctx context.Context, src Source, key string) (T, error) {
	cfg := defaults()[key].(T)
	b, err := src.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return defaults()[key].(T), fmt.Errorf("decode %s: %w", key, err)
	}
	return cfg, nil
}

func (l *Loader) AutoModNoLeader(ctx context.Context) (AutoModNoLeader, error) {
	return load[AutoModNoLeader](ctx, l.src, KeyAutoModNoLeader)
}

func (l *Loader) CameraNotification(ctx context.Context) (CameraNotification, error) {
	return load[CameraNotification](ctx, l.src, KeyCameraNotification)
}

func (l *Loader) RealVip(ctx context.Context) (RealVip, error) {
	return load[RealVip](ctx, l.src, KeyRealVip)
}

func (l *Loader) VacGameBans(ctx context.Context) (VacGameBans, error) {
	return load[VacGameBans](ctx, l.src, KeyVacGameBans)
}

func (l *Loader) CameraWebhooks(ctx context.Context) (CameraWebhooks, error) {
	return load[CameraWebhooks](ctx, l.src, KeyCameraWebhooks)
}

func (l *Loader) MessageOnConnect(ctx context.Context) (MessageOnConnect, error) {
	return load[MessageOnConnect](ctx, l.src, KeyMessageOnConnect)
}

func (l *Loader) VoteMap(ctx context.Context) (VoteMap, error) {
	return load[VoteMap](ctx, l.src, KeyVoteMap)
}

// Raw devuelve la config efectiva de key (guardada + defaults) como JSON.
func (l *Loader) Raw(ctx context.Context, key string) ([]byte, error) {
	var (
		v   any
		err error
	)
	switch key {
	case KeyAutoModNoLeader:
		v, err = l.AutoModNoLeader(ctx)
	case KeyCameraNotification:
		v, err = l.CameraNotification(ctx)
	case KeyRealVip:
		v, err = l.RealVip(ctx)
	case KeyVacGameBans:
		v, err = l.VacGameBans(ctx)
	case KeyCameraWebhooks:
		v, err = l.CameraWebhooks(ctx)
	case KeyMessageOnConnect:
		v, err = l.MessageOnConnect(ctx)
	case KeyVoteMap:
		v, err = l.VoteMap(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}

var validators = map[string]func([]byte) error{
	KeyAutoModNoLeader:    check[AutoModNoLeader],
	KeyCameraNotification: check[CameraNotification],
	KeyRealVip:            check[RealVip],
	KeyVacGameBans:        check[VacGameBans],
	KeyCameraWebhooks:     check[CameraWebhooks],
	KeyMessageOnConnect:   check[MessageOnConnect],
	KeyVoteMap:            check[VoteMap],
}

func check[T any](b []byte) error {
	var v T
	return json.Unmarshal(b, &v)
}

// Patch mergea raw (objeto JSON parcial) sobre la config actual y la guarda.
func (l *Loader) Patch(ctx context.Context, key string, raw []byte) ([]byte, error) {
	cur, err := l.Raw(ctx, key)
	if err != nil {
		return nil, err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(cur, &merged); err != nil {
		return nil, err
	}
	patch := map[string]any{}
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, fmt.Errorf("patch %s: %w", key, err)
	}
	for k, v := range patch {
		if _, ok := merged[k]; !ok {
			return nil, fmt.Errorf("patch %s: unknown field %q", key, k)
		}
		merged[k] = v
	}
	b, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	if err := validators[key](b); err != nil {
		return nil, fmt.Errorf("patch %s: %w", key, err)
	}
	if err := l.src.Set(ctx, key, json.RawMessage(b)); err != nil {
		return nil, err
	}
	return l.Raw(ctx, key)
}
