package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jose-valero/hll-hooks/internal/adapters/rcon"
	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

// Lo implementa internal/app/settings.Loader
type ConfigStore interface {
	Raw(ctx context.Context, key string) ([]byte, error)
	Patch(ctx context.Context, key string, raw []byte) ([]byte, error)
}

// Lo implementa internal/infra/storage.PlayerRepo
type PlayerAdminRepo interface {
	GetPlayer(ctx context.Context, playerID string) (storage.Player, error)
	Blacklist(ctx context.Context, playerID, reason, by string) error
	Unblacklist(ctx context.Context, playerID string) error
	SetFlags(ctx context.Context, playerID string, flags []string) error
	OpenSession(ctx context.Context, playerID string) (storage.Session, error)
}

// Lo implementa internal/adapters/rcon.Client (cacheado hasta el próximo connect)
type PlayerLookup interface {
	GetPlayerInfo(ctx context.Context, name string) (rcon.PlayerInfo, error)
}

// AdminService atiende los comandos de admins (Discord y hookctl).
type AdminService struct {
	configs ConfigStore
	players PlayerAdminRepo
	live    PlayerLookup
	n       Notifier
}

func NewAdminService(configs ConfigStore, players PlayerAdminRepo, live PlayerLookup, n Notifier) *AdminService {
	return &AdminService{configs: configs, players: players, live: live, n: n}
}

func (s *AdminService) ShowConfig(ctx context.Context, key string) (string, error) {
	raw, err := s.configs.Raw(ctx, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("**%s**\n```json\n%s\n```", key, raw), nil
}

// UpdateConfig aplica un patch JSON parcial y audita quién lo hizo.
func (s *AdminService) UpdateConfig(ctx context.Context, key, patch, by string) (string, error) {
	raw, err := s.configs.Patch(ctx, key, []byte(patch))
	if err != nil {
		return "", err
	}
	s.audit(ctx, fmt.Sprintf("`CONFIG` %s -> %s", key, strings.TrimSpace(patch)), by)
	return fmt.Sprintf("**%s**\n```json\n%s\n```", key, raw), nil
}

// Blacklist marca al jugador; el ban efectivo lo hace el hook de connect.
func (s *AdminService) Blacklist(ctx context.Context, playerID, reason, by string) (string, error) {
	p, err := s.player(ctx, playerID)
	if err != nil {
		return "", err
	}
	if err := s.players.Blacklist(ctx, playerID, reason, by); err != nil {
		return "", fmt.Errorf("blacklist %s: %w", playerID, err)
	}
	s.audit(ctx, "`BLACKLIST` added -> "+dictToDiscord("player", p.Name, "id", playerID, "reason", reason), by)
	return fmt.Sprintf("⛔ **%s** (`%s`) en blacklist. Se banea en el próximo connect.", p.Name, playerID), nil
}

func (s *AdminService) Unblacklist(ctx context.Context, playerID, by string) (string, error) {
	p, err := s.player(ctx, playerID)
	if err != nil {
		return "", err
	}
	if p.Blacklist == nil || !p.Blacklist.IsBlacklisted {
		return fmt.Sprintf("**%s** no está en blacklist.", p.Name), nil
	}
	if err := s.players.Unblacklist(ctx, playerID); err != nil {
		return "", fmt.Errorf("unblacklist %s: %w", playerID, err)
	}
	s.audit(ctx, "`BLACKLIST` removed -> "+dictToDiscord("player", p.Name, "id", playerID), by)
	return fmt.Sprintf("✅ **%s** fuera de blacklist.", p.Name), nil
}

// SetFlags reemplaza los flags (se usan en la whitelist del VAC check).
// flags llega separado por comas o espacios.
func (s *AdminService) SetFlags(ctx context.Context, playerID, flags, by string) (string, error) {
	list := strings.FieldsFunc(flags, func(r rune) bool { return r == ',' || r == ' ' })
	if err := s.players.SetFlags(ctx, playerID, list); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("player %s never seen", playerID)
		}
		return "", err
	}
	s.audit(ctx, "`FLAGS` -> "+dictToDiscord("id", playerID, "flags", strings.Join(list, " ")), by)
	if len(list) == 0 {
		return fmt.Sprintf("Flags de `%s` borrados.", playerID), nil
	}
	return fmt.Sprintf("Flags de `%s`: %s", playerID, strings.Join(list, " ")), nil
}

// PlayerStatus junta lo guardado del jugador con lo que dice el server
// si tiene una sesión abierta.
func (s *AdminService) PlayerStatus(ctx context.Context, playerID string) (string, error) {
	p, err := s.player(ctx, playerID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (`%s`)\n", p.Name, playerID)
	if len(p.Flags) > 0 {
		fmt.Fprintf(&b, "Flags: %s\n", strings.Join(p.Flags, " "))
	}
	if p.Blacklist != nil && p.Blacklist.IsBlacklisted {
		fmt.Fprintf(&b, "⛔ Blacklist: %s (por %s)\n", p.Blacklist.Reason, p.Blacklist.By)
	}

	sess, err := s.players.OpenSession(ctx, playerID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fmt.Fprintf(&b, "Desconectado, visto por última vez %s", p.LastSeenAt.UTC().Format("2006-01-02 15:04"))
		return b.String(), nil
	case err != nil:
		return "", fmt.Errorf("open session %s: %w", playerID, err)
	}
	fmt.Fprintf(&b, "🟢 Conectado desde %s", sess.StartedAt.UTC().Format("15:04"))

	info, err := s.live.GetPlayerInfo(ctx, p.Name)
	if err != nil {
		log.Printf("[admin] get_player_info %s: %v", p.Name, err)
		return b.String(), nil
	}
	if info.Team != "" {
		fmt.Fprintf(&b, "\nEquipo: %s", info.Team)
	}
	if info.Unit != "" {
		fmt.Fprintf(&b, " | Escuadra: %s", info.Unit)
	}
	if info.Role != "" {
		fmt.Fprintf(&b, " | Rol: %s", info.Role)
	}
	if info.Level > 0 {
		fmt.Fprintf(&b, " | Nivel %d", info.Level)
	}
	return b.String(), nil
}

func (s *AdminService) player(ctx context.Context, playerID string) (storage.Player, error) {
	p, err := s.players.GetPlayer(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Player{}, fmt.Errorf("player %s never seen", playerID)
	}
	return p, err
}

func (s *AdminService) audit(ctx context.Context, msg, by string) {
	if err := s.n.Audit(ctx, msg, by); err != nil {
		log.Printf("[admin] audit failed: %v", err)
	}
}
