package cli

import (
	"io"

	"github.com/hashicorp/go-hclog"
)

// newLogger returns the CLI logger: Info by default, Debug with --verbose, Error with --quiet.
func newLogger(w io.Writer, verbose, quiet bool) hclog.Logger {
	level := hclog.Info
	switch {
	case verbose:
		level = hclog.Debug
	case quiet:
		level = hclog.Error
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:        "kpalette",
		Output:      w,
		Level:       level,
		DisableTime: !verbose,
	})
}
