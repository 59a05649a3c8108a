// Package main provides the roll command, which rolls dice notation or runs
// a Lua dice script and prints the resulting roll log.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/config"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/parser"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/roll"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/observability"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/scripting"
)

var errUsage = errors.New("usage: roll [-config file] [-engine name] [-seed n] [-format text|json|base64|yaml] [-script file.lua] notation...")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Printf("roll: %v", err)
		os.Exit(1)
	}
}

// run parses args, rolls every notation (or runs the script) and writes the
// log to stdout in the configured format.
//
// Postcondition: Returns nil only if every roll succeeded and the log was written.
func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("roll", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file; empty = defaults and environment only")
	engineName := fs.String("engine", "", "random engine: "+strings.Join(engine.Names(), ", "))
	seed := fs.Int64("seed", 0, "engine seed; 0 = seed from crypto/rand")
	format := fs.String("format", "", "output format: text, json, base64 or yaml")
	script := fs.String("script", "", "Lua script to run instead of notation arguments")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "engine":
			cfg.Engine.Name = *engineName
		case "seed":
			cfg.Engine.Seed = *seed
		case "format":
			cfg.Output.Format = *format
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	notations := fs.Args()
	if len(notations) == 0 && *script == "" {
		return errUsage
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	eng, err := cfg.Engine.Build()
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}
	metrics := observability.NewMetrics()

	opts := []roll.Option{
		roll.WithGenerator(engine.NewGenerator(eng)),
		roll.WithLogger(logger),
		roll.WithRecorder(metrics),
	}
	var parse roll.ParseFunc = parser.Parse
	if cfg.Parser.CacheSize > 0 {
		cache, err := parser.NewCache(cfg.Parser.CacheSize, metrics.ObserveParseCache)
		if err != nil {
			return fmt.Errorf("creating parse cache: %w", err)
		}
		parse = cache.Parse
		opts = append(opts, roll.WithParser(parse))
	}
	roller := roll.NewDiceRoller(opts...)

	logger.Debug("rolling",
		zap.String("engine", cfg.Engine.Name),
		zap.Int("notations", len(notations)),
		zap.String("script", *script),
	)

	if *script != "" {
		mgr := scripting.NewManager(roller, logger, cfg.Scripting.InstructionLimit)
		mgr.Parse = parse
		defer mgr.Close()
		if _, err := mgr.RunFile(*script); err != nil {
			return err
		}
	}
	if len(notations) > 0 {
		if _, err := roller.RollAll(notations...); err != nil {
			return err
		}
	}

	if err := write(stdout, roller, cfg.Output.Format); err != nil {
		return err
	}

	if snap, err := metrics.Snapshot(); err == nil {
		fields := make([]zap.Field, 0, len(snap))
		for name, v := range snap {
			fields = append(fields, zap.Float64(name, v))
		}
		logger.Debug("metrics", fields...)
	}
	return nil
}

func write(w io.Writer, roller *roll.DiceRoller, format string) error {
	if format == "text" {
		for _, r := range roller.Log() {
			if _, err := fmt.Fprintln(w, r.Output()); err != nil {
				return err
			}
		}
		return nil
	}
	f, err := roll.ParseFormat(format)
	if err != nil {
		return err
	}
	out, err := roller.Export(f)
	if err != nil {
		return fmt.Errorf("exporting roll log: %w", err)
	}
	s := fmt.Sprint(out)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err = io.WriteString(w, s)
	return err
}
