package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mklarqvist/tachyon-sub001/genotype"
	"github.com/mklarqvist/tachyon-sub001/record"
)

// readRecords parses the minimal tab-separated record stream this CLI
// accepts in place of a real VCF/BCF parser (an external collaborator's
// concern, not this engine's). One line per site:
//
//	rid  pos  qual  id  ref,alt,...  gt;gt;...
//
// Each gt field is ploidy alleles joined by "/" (unphased) or "|" (phased),
// allele "." for missing. A line with no gt column (or "." in it) imports
// the site without a GenotypeField; the number of gt fields is not checked
// against n_samples.
func readRecords(r io.Reader) ([]record.Record, error) {
	var out []record.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func parseLine(line string) (record.Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 5 {
		return record.Record{}, fmt.Errorf("expected at least 5 tab-separated fields, got %d", len(fields))
	}

	rid, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return record.Record{}, fmt.Errorf("rid: %w", err)
	}
	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return record.Record{}, fmt.Errorf("pos: %w", err)
	}
	qual, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		return record.Record{}, fmt.Errorf("qual: %w", err)
	}
	id := fields[3]
	if id == "." {
		id = ""
	}

	var alleles []record.Allele
	for _, a := range strings.Split(fields[4], ",") {
		alleles = append(alleles, record.Allele(a))
	}

	rec := record.Record{RID: int32(rid), Pos: pos, Qual: float32(qual), ID: id, Alleles: alleles}

	if len(fields) >= 6 && fields[5] != "" && fields[5] != "." {
		calls, err := parseGenotypes(fields[5])
		if err != nil {
			return record.Record{}, fmt.Errorf("genotypes: %w", err)
		}
		rec.Genotype = &record.GenotypeField{Calls: calls}
	}

	return rec, nil
}

func parseGenotypes(field string) ([]record.Call, error) {
	samples := strings.Split(field, ";")
	calls := make([]record.Call, len(samples))

	for i, s := range samples {
		phased := strings.Contains(s, "|")
		sep := "/"
		if phased {
			sep = "|"
		}

		tokens := strings.Split(s, sep)
		alleles := make([]int32, len(tokens))
		for j, tok := range tokens {
			if tok == "." {
				alleles[j] = genotype.AlleleMissing
				continue
			}
			v, err := strconv.ParseInt(tok, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("sample %d allele %d: %w", i, j, err)
			}
			alleles[j] = int32(v)
		}

		calls[i] = record.Call{Alleles: alleles, Phased: phased}
	}

	return calls, nil
}
