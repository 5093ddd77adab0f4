package record

// Allele is a byte-string allele (REF or one ALT), length-prefixed on the
// wire by a u16 per §3.
type Allele []byte

// MetaRecord is one variant site's invariant-column metadata, per §3.
type MetaRecord struct {
	ContigID int32
	Position int64
	Quality  float32
	Name     string
	Alleles  []Allele

	InfoPatternID   int32
	FormatPatternID int32
	FilterPatternID int32

	Controller Controller
}

// NAlleles returns len(Alleles), the record's u16 n_alleles field.
func (m MetaRecord) NAlleles() int { return len(m.Alleles) }

// FieldPrimitive identifies an INFO/FORMAT field's declared element type,
// mirroring the bcf1_t FieldView.primitive enum of §6.
type FieldPrimitive int

const (
	FieldInt FieldPrimitive = iota
	FieldFloat
	FieldString
	FieldFlag
)

// FieldView is one INFO or FORMAT field attached to a record, shaped after
// §6's bcf1_t-derived input: "FieldView = {key, primitive, n_per_sample, bytes}".
type FieldView struct {
	Key        int32
	Primitive  FieldPrimitive
	NPerSample uint16
	Bytes      []byte
}

// GenotypeField is the FORMAT/GT field's per-sample genotype data, carried
// separately from generic FieldView since the genotype package's Call type
// is richer than a flat byte slice.
type GenotypeField struct {
	Key   int32
	Calls []Call
}

// Call mirrors genotype.Call without importing the genotype package here,
// avoiding a dependency cycle (genotype does not need to know about
// MetaRecord, but would if record imported it for this one type). Callers
// convert between the two with a one-line adapter.
type Call struct {
	Alleles []int32
	Phased  bool
}

// Record is the push-based, bcf1_t-shaped input §6 describes: "the core
// consumes an iterator of records... ingest is push-based: the caller
// calls append(record) until a block-boundary predicate fires."
type Record struct {
	RID      int32
	Pos      int64
	Qual     float32
	ID       string
	Alleles  []Allele
	Info     []FieldView
	Format   []FieldView
	Genotype *GenotypeField
}
