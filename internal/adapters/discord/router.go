package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/hll-hooks/internal/app/service"
	"github.com/jose-valero/hll-hooks/internal/app/timers"
	"github.com/jose-valero/hll-hooks/internal/domain"
)

// Lo implementa internal/app/timers.Registry
type TimerLister interface {
	Snapshot() []timers.Pending
}

// Lo implementa internal/app/events.Router
type HandlerLister interface {
	Handlers(kind domain.EventKind) []string
}

// Lo implementa service.VoteMapService
type VoteMaps interface {
	Results(ctx context.Context) ([]service.VoteTally, error)
	Initialise(ctx context.Context)
}

// Router atiende los slash commands de admins.
type Router struct {
	s       *discordgo.Session
	guildID string

	admin        *service.AdminService
	votes        VoteMaps
	timers       TimerLister
	hooks        HandlerLister
	adminRoleIDs []string
	limiter      *userLimiter
}

func NewRouter(
	s *discordgo.Session,
	guildID string,
	admin *service.AdminService,
	votes VoteMaps,
	timers TimerLister,
	hooks HandlerLister,
	adminRoleIDs []string,
) *Router {
	return &Router{
		s:            s,
		guildID:      guildID,
		admin:        admin,
		votes:        votes,
		timers:       timers,
		hooks:        hooks,
		adminRoleIDs: adminRoleIDs,
		limiter:      newUserLimiter(2 * time.Second),
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.Type != discordgo.InteractionApplicationCommand || ic.Member == nil {
			return
		}
		r.handleSlashCommand(s, ic)
	})
}
