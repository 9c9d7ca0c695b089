// cmd/bot/main.go: proceso largo que escucha el log de CRCON y corre los hooks
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/jose-valero/hll-hooks/internal/adapters/discord"
	"github.com/jose-valero/hll-hooks/internal/adapters/httpapi"
	"github.com/jose-valero/hll-hooks/internal/adapters/logstream"
	"github.com/jose-valero/hll-hooks/internal/adapters/rcon"
	"github.com/jose-valero/hll-hooks/internal/adapters/steam"
	"github.com/jose-valero/hll-hooks/internal/app/events"
	"github.com/jose-valero/hll-hooks/internal/app/service"
	"github.com/jose-valero/hll-hooks/internal/app/settings"
	"github.com/jose-valero/hll-hooks/internal/app/timers"
	"github.com/jose-valero/hll-hooks/internal/clock"
	"github.com/jose-valero/hll-hooks/internal/infra/cache"
	"github.com/jose-valero/hll-hooks/internal/infra/config"
	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// DB
	db, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatal("migrate:", err)
	}
	log.Println("✅ DB lista y migrada")

	// Redis (cache de CRCON + estado del vote map)
	rdb, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}
	defer rdb.Close()

	// Repos
	playersRepo := storage.NewPlayerRepo(db)
	historyRepo := storage.NewMapHistoryRepo(db)
	statsRepo := storage.NewStatsRepo(db)
	auditRepo := storage.NewAuditRepo(db)
	configs := settings.NewLoader(storage.NewUserConfigRepo(db))

	// Clientes externos
	rc := rcon.New(cfg.RconAPIURL, cfg.RconAPIToken, rcon.WithCache(cache.NewStore(rdb), 0))
	sc := steam.New(cfg.SteamAPIKey)

	// Discord: los webhooks no necesitan token; los slash commands sí
	s, err := discordgo.New(botAuth(cfg.DiscordToken))
	if err != nil {
		log.Fatal(err)
	}
	notifier := discord.NewNotifier(s, cfg.AuditWebhookURL, cfg.ServerName, auditRepo)

	// Hooks
	clk := clock.NewReal()
	reg := timers.NewRegistry(clk)
	defer reg.StopAll()
	router := events.NewRouter(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	hooks := service.NewHooks(service.Deps{
		Rcon:     rc,
		Bans:     sc,
		Players:  playersRepo,
		History:  historyRepo,
		Stats:    statsRepo,
		Votes:    cache.NewVoteStore(rdb),
		Configs:  configs,
		Notifier: notifier,
		Timers:   reg,
		Clock:    clk,
	})
	hooks.Register(router)

	if cfg.DiscordToken != "" {
		s.Identify.Intents = discordgo.IntentsGuilds
		if err := s.Open(); err != nil {
			log.Fatal(err)
		}
		defer s.Close()
		log.Printf("✅ Conectado como %s (%s)", s.State.User.Username, s.State.User.ID)

		admin := service.NewAdminService(configs, playersRepo, rc, notifier)
		r := discord.NewRouter(s, cfg.DiscordGuild, admin, hooks.VoteMaps, reg, router, cfg.AdminRoleIDs)
		if err := r.Register(); err != nil {
			log.Fatalf("registrando comandos: %v", err)
		}
		r.Handlers()
		log.Printf("✅ comandos registrados en guild %s", cfg.DiscordGuild)
	}

	// HTTP de operación
	web := httpapi.New(cfg.HooksSecret, httpapi.Deps{
		Router:  router,
		Timers:  reg,
		Audit:   auditRepo,
		Maps:    historyRepo,
		Configs: configs,
	})
	webDone := make(chan struct{})
	go func() {
		defer close(webDone)
		if err := web.Start(ctx, cfg.HTTPAddr); err != nil {
			log.Printf("[http] stopped: %v", err)
		}
	}()

	// Recordatorio periódico del vote map
	go hooks.VoteMaps.RunReminders(ctx, cfg.VoteReminderEvery)

	// Log stream: bloquea hasta la señal
	stream := logstream.New(cfg.LogStreamURL, cfg.RconAPIToken, router)
	log.Printf("✅ escuchando %s", cfg.LogStreamURL)
	if err := stream.Run(ctx); err != nil {
		log.Printf("[logstream] %v", err)
	}

	log.Printf("apagando, %d timers pendientes descartados", len(reg.Snapshot()))
	<-webDone
}

func botAuth(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(token), "bot ") {
		token = "Bot " + token
	}
	return token
}
