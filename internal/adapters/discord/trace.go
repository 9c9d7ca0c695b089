package discord

import (
	"log"
	"time"
)

// step loguea cuánto tardó un comando: defer step("cmd.x")()
func step(label string) func() {
	start := time.Now()
	return func() { log.Printf("[trace] %s = %s", label, time.Since(start)) }
}
