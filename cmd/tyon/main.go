// Command tyon is the CLI frontend over the tachyon package: import ingests
// a record stream into a .yon file, view decodes one, and stats reports its
// per-container compressed/uncompressed footprint. Exit codes follow the
// engine's own error-kind table: 0 success, 1 user/format error, 2 I/O
// error, 3 integrity failure or keychain miss.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
	"go.uber.org/zap"
)

var cli struct {
	Import ImportCmd `cmd:"" help:"Ingest a record stream into a .yon file."`
	View   ViewCmd   `cmd:"" help:"Decode a .yon file and print one line per record."`
	Stats  StatsCmd  `cmd:"" help:"Print per-container compressed/uncompressed sizes."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("tyon"),
		kong.Description("Columnar storage engine for genomic variant-call data."),
		kong.UsageOnError(),
	)

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	runErr := ctx.Run(logger)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "tyon:", runErr)
	}
	os.Exit(exitCode(runErr))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, tachyonerr.ErrIntegrityFailure) || errors.Is(err, tachyonerr.ErrKeychainMiss):
		return 3
	case errors.Is(err, tachyonerr.ErrIO):
		return 2
	default:
		return 1
	}
}
