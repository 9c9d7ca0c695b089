// lógica de InteractionApplicationCommand: sólo leemos opciones y
// despachamos al servicio que corresponda
package discord

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

func (r *Router) handleSlashCommand(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	log.Printf("[discord] cmd: /%s by=%s guild=%s", cmd.Name, invokerID(ic), ic.GuildID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[discord] panic in cmd /%s: %v", cmd.Name, rec)
			ReplyEphemeral(s, ic, "❌ Ocurrió un error inesperado procesando el comando.")
		}
	}()

	_ = DeferEphemeral(s, ic)
	if cmd.Name == "ping" {
		ReplyEphemeral(s, ic, "🏓 Pong!")
		return
	}
	if !r.requireAdminOrRoles(s, ic) {
		return
	}
	if !r.limiter.Allow(invokerID(ic)) {
		ReplyEphemeral(s, ic, "⏳ Despacio, probá de nuevo en un segundo.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()
	defer step("cmd." + cmd.Name)()

	by := ic.Member.User.Username // requireAdminOrRoles ya garantizó Member.User
	sub, _ := subcmdName(ic)

	switch cmd.Name {
	case "hooks":
		switch sub {
		case "timers":
			ReplyEphemeral(s, ic, truncate(formatTimers(time.Now(), r.timers.Snapshot())))
		case "handlers":
			ReplyEphemeral(s, ic, truncate(formatHandlers(r.hooks)))
		}

	case "config":
		key, _ := optStr(ic, "key")
		switch sub {
		case "show":
			msg, err := r.admin.ShowConfig(ctx, key)
			reply(s, ic, msg, err, "No pude leer la config")
		case "set":
			patch, _ := optStr(ic, "json")
			msg, err := r.admin.UpdateConfig(ctx, key, patch, by)
			if err == nil {
				msg = "✅ Config actualizada.\n" + msg
			}
			reply(s, ic, msg, err, "No pude actualizar")
		}

	case "blacklist":
		playerID, _ := optStr(ic, "player_id")
		switch sub {
		case "add":
			reason, _ := optStr(ic, "reason")
			msg, err := r.admin.Blacklist(ctx, playerID, reason, by)
			reply(s, ic, msg, err, "No pude agregar a blacklist")
		case "remove":
			msg, err := r.admin.Unblacklist(ctx, playerID, by)
			reply(s, ic, msg, err, "No pude sacar de blacklist")
		}

	case "flags":
		playerID, _ := optStr(ic, "player_id")
		flags, _ := optStr(ic, "flags")
		msg, err := r.admin.SetFlags(ctx, playerID, flags, by)
		reply(s, ic, msg, err, "No pude guardar los flags")

	case "player":
		playerID, _ := optStr(ic, "player_id")
		msg, err := r.admin.PlayerStatus(ctx, playerID)
		reply(s, ic, msg, err, "No pude leer el jugador")

	case "votemap":
		switch sub {
		case "status":
			res, err := r.votes.Results(ctx)
			reply(s, ic, formatVoteResults(res), err, "No pude leer los votos")
		case "reset":
			r.votes.Initialise(ctx)
			res, err := r.votes.Results(ctx)
			reply(s, ic, "🔄 Vote map reiniciado.\n"+formatVoteResults(res), err, "No pude leer los votos")
		}
	}
}

func reply(s *discordgo.Session, ic *discordgo.InteractionCreate, msg string, err error, failPrefix string) {
	if err != nil {
		ReplyEphemeral(s, ic, "⚠️ "+failPrefix+": "+err.Error())
		return
	}
	ReplyEphemeral(s, ic, truncate(msg))
}

// invokerID: en DMs viene User y no Member
func invokerID(ic *discordgo.InteractionCreate) string {
	switch {
	case ic.Member != nil && ic.Member.User != nil:
		return ic.Member.User.ID
	case ic.User != nil:
		return ic.User.ID
	}
	return "?"
}
