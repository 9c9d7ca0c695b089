package domain

import (
	"bytes"
	"strconv"
	"strings"
)

// LooseInt guarda el valor crudo de un campo numérico de Steam.
// La API a veces manda null, string o directamente no manda el campo.
type LooseInt string

func (l *LooseInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	*l = LooseInt(strings.Trim(string(b), `"`))
	return nil
}

// Int parsea el valor; falla si vino vacío o no numérico.
func (l LooseInt) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(l)))
}

// BanInfo es el historial de bans de Steam para un jugador.
type BanInfo struct {
	SteamID          string   `json:"SteamId"`
	CommunityBanned  bool     `json:"CommunityBanned"`
	VACBanned        bool     `json:"VACBanned"`
	NumberOfVACBans  LooseInt `json:"NumberOfVACBans"`
	DaysSinceLastBan LooseInt `json:"DaysSinceLastBan"`
	NumberOfGameBans LooseInt `json:"NumberOfGameBans"`
	EconomyBan       string   `json:"EconomyBan"`
}

// SteamProfile es el resumen público del perfil.
type SteamProfile struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	ProfileURL  string `json:"profileurl"`
	Avatar      string `json:"avatarfull"`
	Country     string `json:"loccountrycode"`
	CreatedAt   int64  `json:"timecreated"`
}
