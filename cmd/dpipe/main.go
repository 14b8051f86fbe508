package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/razeghi71/dpipe/config"
	"github.com/razeghi71/dpipe/display"
	"github.com/razeghi71/dpipe/engine"
	"github.com/razeghi71/dpipe/loader"
	"github.com/razeghi71/dpipe/logging"
	"github.com/razeghi71/dpipe/parser"
	"github.com/razeghi71/dpipe/table"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "%v\n%s", err, config.Usage)
		return 2
	}

	logger := logging.New(stderr, logging.Options{Pretty: cfg.Pretty, Debug: cfg.Debug})

	q, err := parser.Parse(cfg.Query)
	if err != nil {
		logger.Error().Err(err).Msg("parse error")
		return 1
	}
	logger.Debug().Str("source", q.Source.Filename).Int("verbs", len(q.Ops)).Msg("query parsed")

	sources := newSourceCache(logger)
	input, err := sources.load(q.Source.Filename)
	if err != nil {
		logger.Error().Err(err).Msg("load error")
		return 1
	}

	result, err := engine.Execute(q, input, sources.load)
	if err != nil {
		logger.Error().Err(err).Msg("pipeline failed")
		return 1
	}
	logger.Debug().Int("rows", result.NRows()).Int("columns", len(result.Columns())).Msg("pipeline finished")

	formatter, err := display.New(cfg.Format, stdout, cfg.MaxRows)
	if err != nil {
		logger.Error().Err(err).Msg("output error")
		return 1
	}
	if err := formatter.Format(result); err != nil {
		logger.Error().Err(err).Msg("output error")
		return 1
	}
	return 0
}

// sourceCache loads each file once, so a self join reads its file a
// single time.
type sourceCache struct {
	logger zerolog.Logger
	tables map[string]*table.Table
}

func newSourceCache(logger zerolog.Logger) *sourceCache {
	return &sourceCache{logger: logger, tables: make(map[string]*table.Table)}
}

func (c *sourceCache) load(name string) (*table.Table, error) {
	if t, ok := c.tables[name]; ok {
		return t, nil
	}
	t, err := loader.Load(name)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("file", name).Int("rows", t.NRows()).Strs("columns", t.Columns()).Msg("source loaded")
	c.tables[name] = t
	return t, nil
}
