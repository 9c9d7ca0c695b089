package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jose-valero/hll-hooks/internal/clock"
	"github.com/jose-valero/hll-hooks/internal/domain"
)

var (
	reVoteCommand = regexp.MustCompile(`(?i)^!votemap\s+(\d+)$`)
	// un dígito suelto: el jugador se olvidó del comando
	reBareDigit = regexp.MustCompile(`^\d\s*$`)
)

const applyRetries = 3

type VoteMapService struct {
	rcon    RconAPI
	votes   VoteStore
	cfg     Configs
	history MapHistoryRepo
	clk     clock.Clock
	shuffle func([]string)
}

func NewVoteMapService(rc RconAPI, votes VoteStore, cfg Configs, history MapHistoryRepo, clk clock.Clock) *VoteMapService {
	return &VoteMapService{
		rcon:    rc,
		votes:   votes,
		cfg:     cfg,
		history: history,
		clk:     clk,
		shuffle: func(s []string) {
			rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		},
	}
}

// CountVote es el hook de chat.
func (s *VoteMapService) CountVote(ctx context.Context, evt domain.LogEvent) error {
	enabled, err := s.HandleVoteCommand(ctx, evt)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(evt.SubContent)
	if enabled && evt.PlayerID != "" && reBareDigit.MatchString(text) {
		return s.rcon.MessagePlayer(ctx, evt.PlayerID, "INVALID VOTE\n\nUse: !votemap "+text, "", false)
	}
	return nil
}

// HandleVoteCommand registra "!votemap N". Devuelve si el votemap está habilitado.
func (s *VoteMapService) HandleVoteCommand(ctx context.Context, evt domain.LogEvent) (bool, error) {
	cfg, err := s.cfg.VoteMap(ctx)
	if err != nil {
		return false, err
	}
	if !cfg.Enabled {
		return false, nil
	}
	m := reVoteCommand.FindStringSubmatch(strings.TrimSpace(evt.SubContent))
	if m == nil || evt.PlayerID == "" {
		return true, nil
	}

	sel, err := s.votes.Selection(ctx)
	if err != nil {
		return true, fmt.Errorf("vote selection: %w", err)
	}
	idx, _ := strconv.Atoi(m[1])
	if idx < 0 || idx >= len(sel) {
		msg := "No maps to vote for right now"
		if len(sel) > 0 {
			msg = fmt.Sprintf("INVALID VOTE\n\nPick a number between 0 and %d", len(sel)-1)
		}
		return true, s.rcon.MessagePlayer(ctx, evt.PlayerID, msg, "VoteMap", false)
	}

	if err := s.votes.AddVote(ctx, evt.PlayerID, sel[idx]); err != nil {
		return true, fmt.Errorf("add vote: %w", err)
	}
	log.Printf("[votemap] %s voted for %s", evt.PlayerID, sel[idx])
	return true, s.rcon.MessagePlayer(ctx, evt.PlayerID, "Vote registered for "+sel[idx], "VoteMap", false)
}

// Initialise arranca una votación nueva. No devuelve error: corre en el
// cleanup del match start y sólo se loguea.
func (s *VoteMapService) Initialise(ctx context.Context) {
	cfg, err := s.cfg.VoteMap(ctx)
	if err != nil {
		log.Printf("[votemap] something went wrong in vote map init: %v", err)
		return
	}
	if !cfg.Enabled {
		return
	}
	log.Printf("[votemap] new match started initializing vote map")

	steps := []func(context.Context) error{
		s.votes.Clear,
		s.GenSelection,
		func(ctx context.Context) error { return s.votes.SetLastReminder(ctx, s.clk.Now()) },
		func(ctx context.Context) error { _, err := s.ApplyResults(ctx); return err },
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			log.Printf("[votemap] something went wrong in vote map init: %v", err)
			return
		}
	}
}

// GenSelection arma las opciones: whitelist (o la rotación actual) menos
// los últimos mapas jugados.
func (s *VoteMapService) GenSelection(ctx context.Context) error {
	cfg, err := s.cfg.VoteMap(ctx)
	if err != nil {
		return err
	}
	pool := slices.Clone(cfg.Whitelist)
	if len(pool) == 0 {
		if pool, err = s.rcon.GetMapRotation(ctx); err != nil {
			return fmt.Errorf("map rotation: %w", err)
		}
	}

	var recent []string
	if cfg.ExcludeLastN > 0 {
		hist, err := s.history.List(ctx, cfg.ExcludeLastN)
		if err != nil {
			return fmt.Errorf("map history: %w", err)
		}
		for _, h := range hist {
			recent = append(recent, h.Name)
		}
	}

	candidates := make([]string, 0, len(pool))
	for _, m := range pool {
		if !slices.Contains(recent, m) && !slices.Contains(candidates, m) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		candidates = slices.Compact(slices.Clone(pool))
	}

	s.shuffle(candidates)
	if cfg.NumOptions > 0 && len(candidates) > cfg.NumOptions {
		candidates = candidates[:cfg.NumOptions]
	}
	log.Printf("[votemap] new selection: %v", candidates)
	return s.votes.SetSelection(ctx, candidates)
}

type VoteTally struct {
	Map   string
	Votes int
}

// Results cuenta votos por opción, en el orden de la selección.
func (s *VoteMapService) Results(ctx context.Context) ([]VoteTally, error) {
	sel, err := s.votes.Selection(ctx)
	if err != nil {
		return nil, err
	}
	votes, err := s.votes.Votes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]VoteTally, len(sel))
	for i, m := range sel {
		out[i].Map = m
	}
	for _, voted := range votes {
		if i := slices.Index(sel, voted); i >= 0 {
			out[i].Votes++
		}
	}
	return out, nil
}

// ApplyResults pone al ganador como próxima rotación. Sin votos no toca nada.
// En empate gana el primero de la selección.
func (s *VoteMapService) ApplyResults(ctx context.Context) (string, error) {
	res, err := s.Results(ctx)
	if err != nil {
		return "", err
	}
	winner, best := "", 0
	for _, t := range res {
		if t.Votes > best {
			winner, best = t.Map, t.Votes
		}
	}
	if winner == "" {
		return "", nil
	}
	if err := s.rcon.SetMapRotation(ctx, []string{winner}); err != nil {
		return "", fmt.Errorf("apply vote result %s: %w", winner, err)
	}
	log.Printf("[votemap] next map set to %s (%d votes)", winner, best)
	return winner, nil
}

func (s *VoteMapService) ApplyWithRetry(ctx context.Context) error {
	var errs []error
	for i := 0; i < applyRetries; i++ {
		_, err := s.ApplyResults(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Remind manda las opciones a todos los jugadores. Sin force respeta el
// intervalo de la config.
func (s *VoteMapService) Remind(ctx context.Context, force bool) error {
	cfg, err := s.cfg.VoteMap(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return nil
	}
	if !force {
		last, err := s.votes.LastReminder(ctx)
		if err != nil {
			return err
		}
		if s.clk.Since(last) < time.Duration(cfg.ReminderIntervalSecs)*time.Second {
			return nil
		}
	}

	res, err := s.Results(ctx)
	if err != nil {
		return err
	}
	if len(res) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(cfg.ReminderText)
	for i, t := range res {
		fmt.Fprintf(&b, "\n[%d] %s (%d)", i, t.Map, t.Votes)
	}

	players, err := s.rcon.GetPlayers(ctx)
	if err != nil {
		return fmt.Errorf("get players: %w", err)
	}
	var errs []error
	for _, p := range players {
		if err := s.rcon.MessagePlayer(ctx, p.PlayerID, b.String(), "VoteMap", false); err != nil {
			errs = append(errs, fmt.Errorf("remind %s: %w", p.PlayerID, err))
		}
	}
	if err := s.votes.SetLastReminder(ctx, s.clk.Now()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// OnMatchEnded aplica el resultado y fuerza un recordatorio.
func (s *VoteMapService) OnMatchEnded(ctx context.Context, _ domain.LogEvent) error {
	log.Printf("[votemap] match ended reminding to vote map")
	errApply := s.ApplyWithRetry(ctx)
	errRemind := s.Remind(ctx, true)
	return errors.Join(errApply, errRemind)
}

// RunReminders llama a Remind cada every hasta que se cancele ctx.
func (s *VoteMapService) RunReminders(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Remind(ctx, false); err != nil {
				log.Printf("[votemap] reminder: %v", err)
			}
		}
	}
}
