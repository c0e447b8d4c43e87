package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ivlev/gloworb/internal/config"
	"github.com/ivlev/gloworb/internal/effects"
	"github.com/ivlev/gloworb/internal/engine"
	"github.com/ivlev/gloworb/internal/logging"
	"github.com/ivlev/gloworb/internal/system"
)

var version = "dev"

func main() {
	fs := pflag.NewFlagSet("gloworb", pflag.ExitOnError)
	config.Flags(fs)
	writeConfig := fs.String("write-config", "", "write the effective configuration to this file and exit")
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] config: %v\n", err)
		os.Exit(2)
	}
	log := logging.New("gloworb", cfg.Log.Level, cfg.Log.Pretty)

	if *writeConfig != "" {
		if err := cfg.Write(*writeConfig); err != nil {
			log.Fatal().Err(err).Msg("write config")
		}
		log.Info().Str("file", *writeConfig).Msg("configuration written")
		return
	}

	system.InitResourceLimits()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	output := cfg.OutputPath()
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		log.Fatal().Err(err).Msg("create output directory")
	}

	sink, err := engine.OpenSink(ctx, cfg, output, &effects.DefaultEffect{}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open output")
	}

	project := engine.NewProject(cfg, sink, log)
	res, err := project.Run(ctx)
	if closeErr := sink.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		log.Fatal().Err(err).Msg("render failed")
	}

	for _, d := range res.Dumps {
		log.Info().Str("file", d).Msg("path dump")
	}
	if res.Report != "" {
		fmt.Print(res.Report)
	}
	log.Info().
		Str("version", version).
		Str("output", output).
		Int("frames", res.Frames).
		Int64("seed", res.Seed).
		Dur("took", res.Total).
		Msg("done")
}
