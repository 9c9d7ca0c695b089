package service

import (
	"slices"

	"github.com/jose-valero/hll-hooks/internal/domain"
)

// Verdict es el resultado de ShouldBan. Abstain = no hay datos suficientes
// para decidir (distinto de NoBan).
type Verdict int

const (
	Abstain Verdict = iota
	NoBan
	Ban
)

func (v Verdict) String() string {
	switch v {
	case NoBan:
		return "no_ban"
	case Ban:
		return "ban"
	}
	return "abstain"
}

// ShouldBan decide si el historial de Steam amerita ban.
//
// maxGameBans se compara tal cual: el que quiera "sin límite" pasa +Inf
// (ver settings.VacGameBans.GameBanLimit). DaysSinceLastBan == 0 significa
// "nunca baneado", no "baneado hoy".
func ShouldBan(bans *domain.BanInfo, maxGameBans float64, maxDaysSinceBan int, playerFlags, whitelistFlags []string) Verdict {
	if bans == nil {
		return Abstain
	}
	for _, f := range playerFlags {
		if slices.Contains(whitelistFlags, f) {
			return NoBan
		}
	}

	days, err := bans.DaysSinceLastBan.Int()
	if err != nil {
		return Abstain
	}
	gameBans := 0
	if bans.NumberOfGameBans != "" {
		if gameBans, err = bans.NumberOfGameBans.Int(); err != nil {
			return Abstain
		}
	}

	hasBan := bans.VACBanned || float64(gameBans) >= maxGameBans
	if days <= 0 {
		return NoBan
	}
	if days <= maxDaysSinceBan && hasBan {
		return Ban
	}
	return NoBan
}
