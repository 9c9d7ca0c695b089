package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/hll-hooks/internal/app/service"
	"github.com/jose-valero/hll-hooks/internal/app/timers"
	"github.com/jose-valero/hll-hooks/internal/domain"
)

// límite de Discord para content
const maxContent = 2000

func optStr(ic *discordgo.InteractionCreate, name string) (string, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return "", false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Name == name {
			return o.StringValue(), true
		}
		// subcommand
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			for _, so := range o.Options {
				if so.Name == name {
					return so.StringValue(), true
				}
			}
		}
	}
	return "", false
}

func subcmdName(ic *discordgo.InteractionCreate) (string, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return "", false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			return o.Name, true
		}
	}
	return "", false
}

func truncate(msg string) string {
	if len(msg) <= maxContent {
		return msg
	}
	return msg[:maxContent-4] + "\n…"
}

func formatTimers(now time.Time, pending []timers.Pending) string {
	if len(pending) == 0 {
		return "No hay timers pendientes."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Timers pendientes (%d)**", len(pending))
	for _, p := range pending {
		fmt.Fprintf(&b, "\n• `%s` en %s", p.Key, p.Due.Sub(now).Round(time.Second))
	}
	return b.String()
}

func formatHandlers(h HandlerLister) string {
	var b strings.Builder
	b.WriteString("**Handlers**")
	for _, k := range domain.Kinds {
		names := h.Handlers(k)
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n• %s: %s", k, strings.Join(names, " → "))
	}
	return b.String()
}

func formatVoteResults(res []service.VoteTally) string {
	if len(res) == 0 {
		return "No hay selección de mapas activa."
	}
	var b strings.Builder
	b.WriteString("**Vote map**")
	for i, t := range res {
		fmt.Fprintf(&b, "\n[%d] %s (%d)", i, t.Map, t.Votes)
	}
	return b.String()
}
