package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/hll-hooks/internal/app/settings"
)

func keyChoices() []*discordgo.ApplicationCommandOptionChoice {
	keys := settings.Keys()
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(keys))
	for _, k := range keys {
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: k, Value: k})
	}
	return out
}

func playerIDOpt() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "player_id",
		Description: "Steam64 o id de Windows del jugador",
		Required:    true,
	}
}

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "ping",
		Description: "Chequea que el bot esté vivo",
	},
	{
		Name:        "hooks",
		Description: "Estado de los hooks (admins)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "timers", Description: "Timers pendientes"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "handlers", Description: "Handlers por tipo de evento"},
		},
	},
	{
		Name:        "config",
		Description: "Ver o cambiar la config de un hook (admins)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "show",
				Description: "Ver configuración",
				Options: []*discordgo.ApplicationCommandOption{{
					Type: discordgo.ApplicationCommandOptionString, Name: "key", Description: "Hook",
					Required: true, Choices: keyChoices(),
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set",
				Description: "Actualizar configuración (sólo los campos que pases)",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type: discordgo.ApplicationCommandOptionString, Name: "key", Description: "Hook",
						Required: true, Choices: keyChoices(),
					},
					{
						Type: discordgo.ApplicationCommandOptionString, Name: "json", Description: `Patch JSON, ej: {"enabled": true}`,
						Required: true,
					},
				},
			},
		},
	},
	{
		Name:        "blacklist",
		Description: "Blacklist de jugadores (admins)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Agregar a blacklist (ban en el próximo connect)",
				Options: []*discordgo.ApplicationCommandOption{
					playerIDOpt(),
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Motivo", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Sacar de blacklist",
				Options:     []*discordgo.ApplicationCommandOption{playerIDOpt()},
			},
		},
	},
	{
		Name:        "flags",
		Description: "Reemplaza los flags de un jugador (admins)",
		Options: []*discordgo.ApplicationCommandOption{
			playerIDOpt(),
			{Type: discordgo.ApplicationCommandOptionString, Name: "flags", Description: "Separados por coma; vacío borra", Required: false},
		},
	},
	{
		Name:        "player",
		Description: "Estado de un jugador: flags, blacklist y si está conectado (admins)",
		Options:     []*discordgo.ApplicationCommandOption{playerIDOpt()},
	},
	{
		Name:        "votemap",
		Description: "Vote map (admins)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "status", Description: "Opciones y votos actuales"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "reset", Description: "Nueva selección y borra los votos"},
		},
	},
}
