package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	root := &cobra.Command{
		Use:   "bookstore",
		Short: "BookHub online bookstore server",
	}
	root.AddCommand(serveCmd(), createAdminCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
