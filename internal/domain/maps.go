package domain

import "strings"

const UnknownMapName = "unknown"

// LogMapNames traduce el nombre que aparece en el log de MATCH START/ENDED
// al id de mapa que usa el server.
var LogMapNames = map[string]string{
	"CARENTAN OFFENSIVE":           "carentan_offensive_ger",
	"CARENTAN WARFARE":             "carentan_warfare",
	"DRIEL OFFENSIVE":              "driel_offensive_ger",
	"DRIEL WARFARE":                "driel_warfare",
	"EL ALAMEIN OFFENSIVE":         "elalamein_offensive_ger",
	"EL ALAMEIN WARFARE":           "elalamein_warfare",
	"FOY OFFENSIVE":                "foy_offensive_ger",
	"FOY WARFARE":                  "foy_warfare",
	"HILL 400 OFFENSIVE":           "hill400_offensive_ger",
	"HILL 400 WARFARE":             "hill400_warfare",
	"HÜRTGEN FOREST OFFENSIVE":     "hurtgenforest_offensive_ger",
	"HÜRTGEN FOREST WARFARE":       "hurtgenforest_warfare_V2",
	"KHARKOV OFFENSIVE":            "kharkov_offensive",
	"KHARKOV WARFARE":              "kharkov_warfare",
	"KURSK OFFENSIVE":              "kursk_offensive_ger",
	"KURSK WARFARE":                "kursk_warfare",
	"OMAHA BEACH OFFENSIVE":        "omahabeach_offensive_us",
	"OMAHA BEACH WARFARE":          "omahabeach_warfare",
	"PURPLE HEART LANE OFFENSIVE":  "PHL_L_1944_OffensiveGER",
	"PURPLE HEART LANE WARFARE":    "PHL_L_1944_Warfare",
	"SAINTE-MÈRE-ÉGLISE OFFENSIVE": "stmereeglise_offensive_ger",
	"SAINTE-MÈRE-ÉGLISE WARFARE":   "stmereeglise_warfare",
	"ST MARIE DU MONT OFFENSIVE":   "stmariedumont_off_ger",
	"ST MARIE DU MONT WARFARE":     "stmariedumont_warfare",
	"STALINGRAD OFFENSIVE":         "stalingrad_offensive_ger",
	"STALINGRAD WARFARE":           "stalingrad_warfare",
	"UTAH BEACH OFFENSIVE":         "utahbeach_offensive_us",
	"UTAH BEACH WARFARE":           "utahbeach_warfare",
	"MORTAIN OFFENSIVE":            "mortain_offensiveUS_day",
	"MORTAIN WARFARE":              "mortain_warfare_day",
}

// ResolveLogMapName devuelve el id canónico o UnknownMapName.
func ResolveLogMapName(subContent string) string {
	if name, ok := LogMapNames[strings.TrimSpace(subContent)]; ok {
		return name
	}
	return UnknownMapName
}

// MapFamily es el texto antes del primer "_", en minúsculas
// ("foy_warfare" -> "foy").
func MapFamily(name string) string {
	fam, _, _ := strings.Cut(name, "_")
	return strings.ToLower(fam)
}

// SameMapFamily compara dos nombres por familia.
func SameMapFamily(a, b string) bool {
	return MapFamily(a) == MapFamily(b)
}

// MapHistoryEntry es una fila del historial de mapas.
type MapHistoryEntry struct {
	ID      int64
	Name    string
	Start   int64  // unix seconds
	End     *int64 // nil mientras el mapa sigue corriendo
	Guessed bool
}

// Gamestate es lo mínimo que usamos de /api/get_gamestate.
type Gamestate struct {
	NumAlliedPlayers int    `json:"num_allied_players"`
	NumAxisPlayers   int    `json:"num_axis_players"`
	CurrentMap       string `json:"current_map"`
	NextMap          string `json:"next_map"`
}

// TotalPlayers suma ambos bandos.
func (g Gamestate) TotalPlayers() int {
	return g.NumAlliedPlayers + g.NumAxisPlayers
}
