// Package config reads the command line tool's settings from flags and the
// environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/razeghi71/dpipe/logging"
)

// Config is the validated configuration of one dpipe run.
type Config struct {
	Query   string `validate:"required"`
	Format  string `validate:"oneof=table csv json"`
	MaxRows int    `validate:"gte=0"`
	Pretty  bool
	Debug   bool
}

// Usage is printed when the query is missing or a flag is wrong.
const Usage = `usage: dpipe [flags] '<query>'
example: dpipe 'cars.csv | group_by cyl | summarize hp = mean() | arrange hp desc'
`

var validate = validator.New()

// Load parses args (without the program name). Flags override the
// DPIPE_FORMAT, DPIPE_MAX_ROWS, PRETTY and DEBUG environment variables.
func Load(args []string, stderr io.Writer) (Config, error) {
	logOpts := logging.OptionsFromEnv()
	cfg := Config{
		Format: getEnvOrDefault("DPIPE_FORMAT", "table"),
		Pretty: logOpts.Pretty,
		Debug:  logOpts.Debug,
	}
	if s := os.Getenv("DPIPE_MAX_ROWS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Config{}, fmt.Errorf("DPIPE_MAX_ROWS: %w", err)
		}
		cfg.MaxRows = n
	}

	fs := flag.NewFlagSet("dpipe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, Usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.Format, "format", cfg.Format, "output format: table, csv or json")
	fs.IntVar(&cfg.MaxRows, "max-rows", cfg.MaxRows, "print at most this many rows in table format (0 = all)")
	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "human readable logs")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 1 {
		return Config{}, fmt.Errorf("expected one query argument, got %d", fs.NArg())
	}
	cfg.Query = fs.Arg(0)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags of c.
func (c Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]error, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Errorf("invalid %s: failed %q check (got %v)", fe.Field(), fe.Tag(), fe.Value())
	}
	return errors.Join(msgs...)
}

func getEnvOrDefault(env, defaultVal string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return defaultVal
}
