// Package genotype implements the cost-evaluating genotype run-length
// encoder of §4.3: a per-site summary, three cost assessors (diploid
// biallelic, diploid multi-allelic, multi-ploid), and their matching
// encoders/decoders. The assessor always runs before the encoder, exactly
// as in the original: "It first assesses the cheapest primitive width x
// encoding method, then emits that encoding."
package genotype

// Sentinel allele codes used throughout this package, distinct from the
// column-level format.Missing/format.EndOfVector sentinels (those apply to
// general INFO integers; genotypes have their own small-int sentinel
// space per §4.3.2's "allele mapping: 0 -> 0, 1 -> 1, missing -> 2").
const (
	AlleleMissing int32 = -1
	AlleleEOV     int32 = -2
)

// Call is one sample's genotype at one site: a ploidy-length slice of
// allele indices (or AlleleMissing/AlleleEOV), plus the phase bit used by
// diploid encodings.
type Call struct {
	Alleles []int32
	Phased  bool
}

// Ploidy returns len(Alleles).
func (c Call) Ploidy() int { return len(c.Alleles) }

// Summary holds the per-site genotype summary of §4.3.1, computed once per
// site from the raw per-sample calls before dispatch.
type Summary struct {
	BasePloidy   int
	UniformPhase bool
	MixedPhasing bool
	NMissing     int
	NVectorEnd   int
	IsInvariant  bool
}

// Summarize computes the §4.3.1 summary for one site's calls.
func Summarize(calls []Call) Summary {
	s := Summary{}
	phaseSet := false
	var firstKey string
	invariant := true

	for _, c := range calls {
		if len(c.Alleles) > s.BasePloidy {
			s.BasePloidy = len(c.Alleles)
		}

		hasRealCall := false
		for _, a := range c.Alleles {
			switch a {
			case AlleleMissing:
				s.NMissing++
			case AlleleEOV:
				s.NVectorEnd++
			default:
				hasRealCall = true
			}
		}

		if hasRealCall && !phaseSet {
			s.UniformPhase = c.Phased
			phaseSet = true
		}

		key := callKey(c)
		if firstKey == "" {
			firstKey = key
		} else if key != firstKey {
			invariant = false
		}
	}

	s.IsInvariant = invariant && len(calls) > 0

	// Every call's phase, missing ones included, is compared against the
	// uniform phase, so a decoder that only knows UniformPhase restores it.
	for _, c := range calls {
		if c.Phased != s.UniformPhase {
			s.MixedPhasing = true

			break
		}
	}

	return s
}

func callKey(c Call) string {
	buf := make([]byte, 0, len(c.Alleles)*5+1)
	for _, a := range c.Alleles {
		buf = append(buf, byte(a), byte(a>>8), byte(a>>16), byte(a>>24))
	}
	if c.Phased {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	return string(buf)
}

// HasEOV reports whether any call in the site carries an END_OF_VECTOR
// sentinel (i.e. some sample has shorter ploidy than BasePloidy).
func HasEOV(calls []Call) bool {
	for _, c := range calls {
		for _, a := range c.Alleles {
			if a == AlleleEOV {
				return true
			}
		}
	}

	return false
}
