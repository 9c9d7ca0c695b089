package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/hll-hooks/internal/domain"
)

const (
	// el jugador todavía no terminó de conectar y no recibe mensajes
	connectMessageDelay   = 10 * time.Second
	temporaryTextDuration = 60 * time.Second
	callbackTimeout       = 15 * time.Second
	cameraEmbedColor      = 242424

	purposeNoLeader         = "no_leader"
	purposeMessageOnConnect = "message_on_connect"
)

// Las claves de timers por jugador son "<player_id>/<purpose>" así un
// disconnect cancela todo lo del jugador con un prefijo.
func timerKeyPrefix(playerID string) string { return playerID + "/" }

type NotifyService struct {
	rcon   RconAPI
	cfg    Configs
	notify Notifier
	timers Scheduler

	// mu cubre todo get/set/restore de los textos temporales
	mu    sync.Mutex
	gen   int
	saved map[string]savedText
}

// savedText es el texto original de broadcast/welcome mientras hay uno
// temporal puesto; gen identifica al último temporal.
type savedText struct {
	orig string
	gen  int
}

func NewNotifyService(rc RconAPI, cfg Configs, n Notifier, timers Scheduler) *NotifyService {
	return &NotifyService{rcon: rc, cfg: cfg, notify: n, timers: timers, saved: map[string]savedText{}}
}

func (s *NotifyService) audit(ctx context.Context, msg, by string) {
	if err := s.notify.Audit(ctx, msg, by); err != nil {
		log.Printf("[notify] unable to send to audit: %v", err)
	}
}

// later programa fn para dentro de connectMessageDelay con su propio ctx.
func (s *NotifyService) later(playerID, purpose string, fn func(ctx context.Context) error) {
	key := timerKeyPrefix(playerID) + purpose
	s.timers.Schedule(key, connectMessageDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("[notify] %s: %v", key, err)
		}
	})
}

// NotifyFalsePositives avisa a los jugadores cuyo nombre termina en espacio:
// como squad leader rompen la detección de "squad sin líder".
func (s *NotifyService) NotifyFalsePositives(ctx context.Context, evt domain.LogEvent) error {
	cfg, err := s.cfg.AutoModNoLeader(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return nil
	}
	if !strings.HasSuffix(evt.Player, " ") || evt.PlayerID == "" {
		return nil
	}

	log.Printf("[notify] player name with whitespace at the end, warning them of false-positive events: %q", evt.Player)
	s.audit(ctx, fmt.Sprintf(
		"WARNING Player with bugged profile joined: `%s` `%s`\n\n"+
			"This player if Squad Officer will cause their squad to be punished. They also will show as unassigned in the Game view.\n\n"+
			"Please ask them to change their name (last character IG shouldn't be a whitespace)",
		evt.Player, evt.PlayerID), "")

	id, name, msg := evt.PlayerID, evt.Player, cfg.WhitespaceMessage
	s.later(id, purposeNoLeader, func(ctx context.Context) error {
		if err := s.rcon.MessagePlayer(ctx, id, msg, "CRcon", false); err != nil {
			return fmt.Errorf("could not message player %s/%s: %w", name, id, err)
		}
		return nil
	})
	return nil
}

// MessageOnConnect manda el mensaje de seed o de partida normal.
func (s *NotifyService) MessageOnConnect(ctx context.Context, evt domain.LogEvent) error {
	cfg, err := s.cfg.MessageOnConnect(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled || evt.PlayerID == "" {
		return nil
	}
	gs, err := s.rcon.GetGamestate(ctx)
	if err != nil {
		return fmt.Errorf("gamestate: %w", err)
	}
	id, name, msg := evt.PlayerID, evt.Player, cfg.Text(gs.TotalPlayers())
	s.later(id, purposeMessageOnConnect, func(ctx context.Context) error {
		if err := s.rcon.MessagePlayer(ctx, id, msg, "Message_on_connect", false); err != nil {
			return fmt.Errorf("could not send message on connect to %q (%s): %w", name, id, err)
		}
		return nil
	})
	return nil
}

// NotifyCamera: audit siempre, embed si hay webhooks, y broadcast/welcome
// temporales según config.
func (s *NotifyService) NotifyCamera(ctx context.Context, evt domain.LogEvent) error {
	s.audit(ctx, evt.Message, evt.Player)

	hooks, err := s.cfg.CameraWebhooks(ctx)
	if err != nil {
		log.Printf("[notify] camera webhooks config: %v", err)
	} else if len(hooks.URLs) > 0 {
		embed := &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("%s  - %s", evt.Player, evt.PlayerID),
			Description: evt.SubContent,
			Color:       cameraEmbedColor,
		}
		if err := s.notify.EmbedURLs(ctx, hooks.URLs, embed); err != nil {
			log.Printf("[notify] unable to forward to hooks: %v", err)
		}
	}

	cfg, err := s.cfg.CameraNotification(ctx)
	if err != nil {
		return err
	}
	var errs []error
	if cfg.Broadcast {
		errs = append(errs, s.temporary(ctx, "broadcast", evt.Message, s.rcon.GetBroadcast, s.rcon.SetBroadcast))
	}
	if cfg.Welcome {
		errs = append(errs, s.temporary(ctx, "welcome", evt.Message, s.rcon.GetWelcomeMessage, s.rcon.SetWelcomeMessage))
	}
	return errors.Join(errs...)
}

// temporary pone msg por temporaryTextDuration y después restaura el texto
// que había antes del primer temporal (si se encadenan, no se pierde el original).
func (s *NotifyService) temporary(ctx context.Context, what, msg string,
	get func(context.Context) (string, error), set func(context.Context, string) error) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, pending := s.saved[what]
	if !pending {
		orig, err := get(ctx)
		if err != nil {
			return fmt.Errorf("temporary %s: %w", what, err)
		}
		cur.orig = orig
	}
	if err := set(ctx, msg); err != nil {
		return fmt.Errorf("temporary %s: %w", what, err)
	}

	s.gen++
	cur.gen = s.gen
	s.saved[what] = cur

	gen := cur.gen
	s.timers.Schedule("server/"+what, temporaryTextDuration, func() {
		s.restore(what, gen, set)
	})
	return nil
}

// restore sólo actúa si nadie puso otro temporal después de gen.
func (s *NotifyService) restore(what string, gen int, set func(context.Context, string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.saved[what]
	if !ok || cur.gen != gen {
		return
	}
	delete(s.saved, what)

	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()
	if err := set(ctx, cur.orig); err != nil {
		log.Printf("[notify] unable to restore %s: %v", what, err)
	}
}
