package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"prism/internal/platform/config"
	"prism/internal/platform/logger"
)

type app struct {
	envFile string
	cfg     *config.Config
	logger  *slog.Logger
	logOut  io.Writer
}

func newRootCommand() *cobra.Command {
	a := &app{logOut: os.Stderr}

	root := &cobra.Command{
		Use:           "prism",
		Short:         "Mint and inspect proof-of-personhood attestations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file loaded before the environment")

	root.AddCommand(
		a.serveCommand(),
		a.mintCommand(),
		a.storeLegacyCommand(),
		a.statusCommand(),
		a.hashCommand(),
		versionCommand(),
	)
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	log, err := logger.NewWithWriter(a.logOut, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = log
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
