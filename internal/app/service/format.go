package service

import (
	"fmt"
	"strings"
)

// dictToDiscord arma "k: `v`" por cada par, en el orden recibido.
func dictToDiscord(kv ...any) string {
	parts := make([]string, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		parts = append(parts, fmt.Sprintf("%v: `%v`", kv[i], kv[i+1]))
	}
	return strings.Join(parts, " ")
}
