package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"times-table-circuit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Error().Err(err).Msg("circuit exited")
		os.Exit(1)
	}
}
