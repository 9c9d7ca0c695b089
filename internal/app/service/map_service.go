package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jose-valero/hll-hooks/internal/clock"
	"github.com/jose-valero/hll-hooks/internal/domain"
)

const (
	matchStartFreshness = 5 * time.Minute
	matchEndFreshness   = 60 * time.Second
	// fin aproximado del mapa anterior cuando nunca llegó su MATCH ENDED
	backfillOffsetSecs = 100
	// familia que no matchea ningún mapa
	unknownCurrentMap = "bla_"
)

type MapService struct {
	rcon    RconAPI
	history MapHistoryRepo
	stats   StatsRepo
	votes   *VoteMapService
	clk     clock.Clock
}

func NewMapService(rc RconAPI, history MapHistoryRepo, stats StatsRepo, votes *VoteMapService, clk clock.Clock) *MapService {
	return &MapService{rcon: rc, history: history, stats: stats, votes: votes, clk: clk}
}

// currentMap nunca falla: si el server no responde devuelve unknownCurrentMap.
func (s *MapService) currentMap(ctx context.Context) string {
	m, err := s.rcon.GetMap(ctx)
	if err != nil {
		log.Printf("[maps] ERROR unable to get current map: %v", err)
		return unknownCurrentMap
	}
	return strings.ReplaceAll(m, "_RESTART", "")
}

// OnMatchStart registra el mapa nuevo. El init del votemap y las stats del
// mapa anterior corren siempre, aunque falle el historial.
func (s *MapService) OnMatchStart(ctx context.Context, evt domain.LogEvent) error {
	defer func() {
		s.votes.Initialise(ctx)
		s.recordPreviousMap(ctx)
	}()

	log.Printf("[maps] new match started recording map %q", evt.SubContent)
	current := s.currentMap(ctx)
	name := domain.ResolveLogMapName(evt.SubContent)
	guessed := true

	if s.clk.Since(evt.Time()) < matchStartFreshness {
		switch {
		case domain.SameMapFamily(current, name):
			name, guessed = current, false
		case name == domain.UnknownMapName:
			name, guessed = current, true
		default:
			log.Printf("[maps] WARN got recent match start but maps don't match %s != %s", name, current)
		}
	}

	start := evt.UnixSeconds()
	var errBackfill error
	last, err := s.history.List(ctx, 1)
	switch {
	case err != nil:
		errBackfill = fmt.Errorf("map history: %w", err)
	case len(last) > 0 && last[0].End == nil && last[0].Name != "":
		if _, err := s.history.SaveEnd(ctx, last[0].Name, start-backfillOffsetSecs); err != nil {
			errBackfill = fmt.Errorf("backfill end of %s: %w", last[0].Name, err)
		}
	}

	_, errSave := s.history.SaveNew(ctx, name, start, guessed)
	if errSave != nil {
		errSave = fmt.Errorf("save new map %s: %w", name, errSave)
	}
	return errors.Join(errBackfill, errSave)
}

func (s *MapService) recordPreviousMap(ctx context.Context) {
	hist, err := s.history.List(ctx, 2)
	if err != nil {
		log.Printf("[maps] stats: unable to read history: %v", err)
		return
	}
	if len(hist) < 2 {
		return
	}
	st, err := s.stats.RecordMap(ctx, hist[1])
	if err != nil {
		log.Printf("[maps] unexpected error while recording stats for %s: %v", hist[1].Name, err)
		return
	}
	log.Printf("[maps] stats recorded for %s: %d players, %ds", st.MapName, st.Players, st.DurationSecs)
}

// OnMatchEnd cierra el mapa en curso sólo si el evento es fresco y el
// mapa del server coincide con el del log.
func (s *MapService) OnMatchEnd(ctx context.Context, evt domain.LogEvent) error {
	log.Printf("[maps] match ended recording map %q", evt.SubContent)
	current := s.currentMap(ctx)
	name := domain.ResolveLogMapName(evt.SubContent)

	if s.clk.Since(evt.Time()) >= matchEndFreshness || !domain.SameMapFamily(current, name) {
		return nil
	}
	ok, err := s.history.SaveEnd(ctx, current, evt.UnixSeconds())
	if err != nil {
		return fmt.Errorf("save map end %s: %w", current, err)
	}
	if !ok {
		log.Printf("[maps] no running history entry for %s", current)
	}
	return nil
}
