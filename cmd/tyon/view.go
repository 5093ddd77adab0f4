package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mklarqvist/tachyon-sub001/keychain"
	"github.com/mklarqvist/tachyon-sub001/record"
	"github.com/mklarqvist/tachyon-sub001/tachyon"
	"github.com/mklarqvist/tachyon-sub001/tachyonerr"
	"go.uber.org/zap"
)

// ViewCmd decodes every block of a .yon file and writes one line per record
// to stdout. Pretty-printing a full VCF is an external collaborator's
// concern (per the engine's own scope notes); this prints the fields the
// reader currently reconstructs — contig id, position, quality, and
// genotype calls.
type ViewCmd struct {
	Input      string `arg:"" help:"Input .yon file path."`
	Samples    int    `required:"" help:"Sample count (n_samples), must match the file that was imported."`
	KeychainIn string `help:"Path to a keychain file written by import --keychain-out, for encrypted files."`
}

func (c *ViewCmd) Run(logger *zap.Logger) error {
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

	for _, e := range idx {
		blk, err := r.ReadBlockAt(e)
		if err != nil {
			return err
		}
		for _, rec := range blk.Records {
			fmt.Printf("%d\t%d\t%.2f\t%s\n", rec.RID, rec.Pos, rec.Qual, formatGenotypes(rec))
		}
	}

	return nil
}

func formatGenotypes(rec record.Record) string {
	if rec.Genotype == nil {
		return "."
	}

	parts := make([]string, len(rec.Genotype.Calls))
	for i, c := range rec.Genotype.Calls {
		sep := "/"
		if c.Phased {
			sep = "|"
		}
		alleles := make([]string, len(c.Alleles))
		for j, a := range c.Alleles {
			if a < 0 {
				alleles[j] = "."
				continue
			}
			alleles[j] = fmt.Sprintf("%d", a)
		}
		parts[i] = strings.Join(alleles, sep)
	}

	return strings.Join(parts, ";")
}
