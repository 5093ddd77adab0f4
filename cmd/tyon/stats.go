package main

import (
	"fmt"
	"os"

	"github.com/mklarqvist/tachyon-sub001/keychain"
	"github.com/mklarqvist/tachyon-sub001/tachyon"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
	"go.uber.org/zap"
)

// StatsCmd prints per-container compressed/uncompressed sizes and ratios for
// every block in a .yon file, aggregated by container name, mirroring the
// per-field breakdown a depth/coverage report would give.
type StatsCmd struct {
	Input      string `arg:"" help:"Input .yon file path."`
	Samples    int    `required:"" help:"Sample count (n_samples), must match the file that was imported."`
	KeychainIn string `help:"Path to a keychain file written by import --keychain-out, for encrypted files."`
}

type columnTotals struct {
	compressed   uint64
	uncompressed uint64
}

func (c *StatsCmd) Run(logger *zap.Logger) error {
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("%w: %v", tachyonerr.ErrIO, err)
	}

	var k *keychain.Keychain
	if c.KeychainIn != "" {
		k, err = readKeyFile(c.KeychainIn)
		if err != nil {
			return fmt.Errorf("%w: %v", tachyonerr.ErrIO, err)
		}
	}

	r, err := tachyon.NewReader(data, c.Samples, k, logger)
	if err != nil {
		return err
	}

	idx, err := tachyon.ParseIndex(data)
	if err != nil {
		return err
	}

	totals := make(map[string]*columnTotals)
	order := make([]string, 0)
	var nVariants uint32

	for _, e := range idx {
		h, stats, err := r.BlockStats(e)
		if err != nil {
			return err
		}
		nVariants += h.NVariants

		for _, s := range stats {
			t, ok := totals[s.Name]
			if !ok {
				t = &columnTotals{}
				totals[s.Name] = t
				order = append(order, s.Name)
			}
			t.compressed += uint64(s.CompressedLen)
			t.uncompressed += uint64(s.UncompressedLen)
		}
	}

	fmt.Printf("blocks: %d   variants: %d\n", len(idx), nVariants)
	fmt.Printf("%-12s %14s %14s %8s\n", "column", "compressed", "uncompressed", "ratio")
	for _, name := range order {
		t := totals[name]
		ratio := 0.0
		if t.compressed > 0 {
			ratio = float64(t.uncompressed) / float64(t.compressed)
		}
		fmt.Printf("%-12s %14d %14d %8.2f\n", name, t.compressed, t.uncompressed, ratio)
	}

	return nil
}
