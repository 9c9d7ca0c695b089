package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string

	RconAPIURL   string // base del API de CRCON, ej: http://crcon:8010
	RconAPIToken string
	LogStreamURL string // opcional, default ws(s)://<RconAPIURL>/ws/logs

	SteamAPIKey string // opcional: sin key no hay chequeo VAC ni perfil

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuditWebhookURL string // opcional, webhook de Discord para auditoría
	ServerName      string
	HTTPAddr        string // opcional, default :8080
	HooksSecret     string // header X-Hooks-Secret; vacío = todo 403 salvo /healthz

	// opcionales: sin token no hay slash commands de admins
	DiscordToken string
	DiscordGuild string
	AdminRoleIDs []string

	VoteReminderEvery time.Duration // default 30s
}

func Load() Config {
	get := func(k string, req bool) string {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" && req {
			log.Fatalf("missing env %s", k)
		}
		return v
	}

	cfg := Config{
		DatabaseURL:     get("DATABASE_URL", true),
		RconAPIURL:      strings.TrimRight(get("RCON_API_URL", true), "/"),
		RconAPIToken:    get("RCON_API_TOKEN", true),
		LogStreamURL:    get("LOG_STREAM_URL", false),
		SteamAPIKey:     get("STEAM_API_KEY", false),
		RedisAddr:       get("REDIS_ADDR", false),
		RedisPassword:   get("REDIS_PASSWORD", false),
		AuditWebhookURL: get("DISCORD_AUDIT_WEBHOOK", false),
		ServerName:      get("SERVER_SHORT_NAME", false),
		HTTPAddr:        get("HTTP_ADDR", false),
		HooksSecret:     get("HOOKS_HTTP_SECRET", false),
		DiscordToken:    get("DISCORD_BOT_TOKEN", false),
		DiscordGuild:    get("DISCORD_GUILD_ID", false),
		AdminRoleIDs:    splitCSV(get("DISCORD_ADMIN_ROLE_IDS", false)),
	}
	if cfg.DiscordToken != "" && cfg.DiscordGuild == "" {
		log.Fatalf("missing env DISCORD_GUILD_ID (required with DISCORD_BOT_TOKEN)")
	}
	cfg.VoteReminderEvery = 30 * time.Second
	if v := get("VOTE_REMINDER_EVERY", false); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid VOTE_REMINDER_EVERY %q", v)
		}
		cfg.VoteReminderEvery = d
	}
	if v := get("REDIS_DB", false); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid REDIS_DB %q: %v", v, err)
		}
		cfg.RedisDB = n
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.ServerName == "" {
		cfg.ServerName = "HLL"
	}
	if cfg.LogStreamURL == "" {
		cfg.LogStreamURL = DefaultLogStreamURL(cfg.RconAPIURL)
	}
	return cfg
}

func splitCSV(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DefaultLogStreamURL cambia http->ws y agrega /ws/logs.
func DefaultLogStreamURL(apiURL string) string {
	u := strings.TrimRight(apiURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws/logs"
}
