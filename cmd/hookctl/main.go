package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/jose-valero/hll-hooks/internal/cli"
)

func main() {
	_ = godotenv.Load()
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
