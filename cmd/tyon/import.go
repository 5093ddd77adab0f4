package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mklarqvist/tachyon-sub001/format"
	"github.com/mklarqvist/tachyon-sub001/header"
	"github.com/mklarqvist/tachyon-sub001/keychain"
	"github.com/mklarqvist/tachyon-sub001/tachyon"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
	"go.uber.org/zap"
)

// ImportCmd ingests the minimal record stream documented in ingest.go and
// writes a .yon file. A real VCF/BCF frontend is an external collaborator's
// concern (see the engine's own scope notes); this is the synthetic stand-in
// that exercises the full Writer path end to end.
type ImportCmd struct {
	Input  string `arg:"" help:"Input record stream path, or - for stdin."`
	Output string `arg:"" help:"Output .yon file path."`

	Samples         int      `required:"" help:"Sample count (n_samples)."`
	Contig          []string `help:"Contig dictionary entry as name:length; repeatable, in rid order."`
	Codec           string   `default:"zstd" enum:"zstd,legacy,none" help:"Container codec."`
	RecordsPerBlock int      `default:"10000" help:"Max records per block."`
	BasesPerBlock   int64    `default:"250000" help:"Max bases spanned per block."`
	Encrypt         bool     `help:"Seal every block under a fresh keychain entry."`
	KeychainOut     string   `help:"Path to write the generated keychain; required with --encrypt."`
}

func codecFromFlag(name string) (format.CompressionType, error) {
	switch name {
	case "zstd":
		return format.CompressionZstd, nil
	case "legacy":
		return format.CompressionLegacy, nil
	case "none":
		return format.CompressionNone, nil
	default:
		return 0, fmt.Errorf("%w: unknown codec %q", tachyonerr.ErrEncoderInvariant, name)
	}
}

func (c *ImportCmd) Run(logger *zap.Logger) error {
	if c.Encrypt && c.KeychainOut == "" {
		return fmt.Errorf("%w: --encrypt requires --keychain-out", tachyonerr.ErrEncoderInvariant)
	}

	in := os.Stdin
	if c.Input != "-" {
		f, err := os.Open(c.Input)
		if err != nil {
			return fmt.Errorf("%w: %v", tachyonerr.ErrIO, err)
		}
		defer f.Close()
		in = f
	}

	recs, err := readRecords(in)
	if err != nil {
		return err
	}
	logger.Info("parsed records", zap.Int("count", len(recs)))

	codec, err := codecFromFlag(c.Codec)
	if err != nil {
		return err
	}

	h := header.New(uint64(c.Samples), header.Version{Major: 1})
	for _, spec := range c.Contig {
		name, lenStr, ok := strings.Cut(spec, ":")
		if !ok {
			return fmt.Errorf("%w: --contig %q must be name:length", tachyonerr.ErrEncoderInvariant, spec)
		}
		length, err := strconv.ParseInt(lenStr, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: --contig %q length: %v", tachyonerr.ErrEncoderInvariant, spec, err)
		}
		if _, err := h.Contigs.Add(header.ContigEntry{Name: name, Length: length}); err != nil {
			return err
		}
	}

	var k *keychain.Keychain
	var rng keychain.RNG
	if c.Encrypt {
		k = keychain.New()
		rng = keychain.Default()
	}

	cfg := tachyon.Config{
		RecordsPerBlock: c.RecordsPerBlock,
		BasesPerBlock:   c.BasesPerBlock,
		Codec:           codec,
		Encrypt:         c.Encrypt,
	}

	w := tachyon.NewWriter(h, c.Samples, cfg, k, rng, logger)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, rec := range recs {
		if err := w.Append(rec); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	if err := os.WriteFile(c.Output, w.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", tachyonerr.ErrIO, err)
	}

	if c.Encrypt {
		if err := writeKeyFile(c.KeychainOut, k); err != nil {
			return fmt.Errorf("%w: %v", tachyonerr.ErrIO, err)
		}
	}

	logger.Info("wrote file", zap.String("path", c.Output), zap.Int("blocks", len(w.BlockIndex())))

	return nil
}
