package cmd

import (
	"github.com/achilleasa/pruner/log"
	"github.com/urfave/cli"
)

var logger = log.New("pruner-cli")

// Apply the configured log level. The -v and -vv flags take precedence.
func setupLogging(ctx *cli.Context, cfg Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return nil
}
