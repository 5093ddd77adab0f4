package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklarqvist/tachyon-sub001/genotype"
)

func TestParseLineMinimalSite(t *testing.T) {
	rec, err := parseLine("0\t100\t30\trs1\tA,G\t0/1;1|1")
	require.NoError(t, err)

	assert.Equal(t, int32(0), rec.RID)
	assert.Equal(t, int64(100), rec.Pos)
	assert.Equal(t, float32(30), rec.Qual)
	assert.Equal(t, "rs1", rec.ID)
	require.Len(t, rec.Alleles, 2)
	assert.Equal(t, "A", string(rec.Alleles[0]))
	assert.Equal(t, "G", string(rec.Alleles[1]))

	require.NotNil(t, rec.Genotype)
	require.Len(t, rec.Genotype.Calls, 2)
	assert.Equal(t, []int32{0, 1}, rec.Genotype.Calls[0].Alleles)
	assert.False(t, rec.Genotype.Calls[0].Phased)
	assert.Equal(t, []int32{1, 1}, rec.Genotype.Calls[1].Alleles)
	assert.True(t, rec.Genotype.Calls[1].Phased)
}

func TestParseLineDotIDAndMissingGenotypeColumn(t *testing.T) {
	rec, err := parseLine("2\t500\t0\t.\tC,T")
	require.NoError(t, err)

	assert.Equal(t, "", rec.ID)
	assert.Nil(t, rec.Genotype)
}

func TestParseLineDotGenotypeColumnOmitsField(t *testing.T) {
	rec, err := parseLine("2\t500\t0\t.\tC,T\t.")
	require.NoError(t, err)
	assert.Nil(t, rec.Genotype)
}

func TestParseLineMissingAllele(t *testing.T) {
	rec, err := parseLine("0\t1\t0\t.\tA,G\t./.;0/0")
	require.NoError(t, err)

	require.Len(t, rec.Genotype.Calls, 2)
	assert.Equal(t, []int32{genotype.AlleleMissing, genotype.AlleleMissing}, rec.Genotype.Calls[0].Alleles)
	assert.Equal(t, []int32{0, 0}, rec.Genotype.Calls[1].Alleles)
}

func TestParseLineTooFewFieldsErrors(t *testing.T) {
	_, err := parseLine("0\t1\t0")
	assert.Error(t, err)
}

func TestParseLineBadIntegerErrors(t *testing.T) {
	_, err := parseLine("not-a-rid\t1\t0\t.\tA,G")
	assert.Error(t, err)
}

func TestReadRecordsSkipsBlankAndCommentLines(t *testing.T) {
	in := strings.Join([]string{
		"# header comment",
		"",
		"0\t1\t10\t.\tA,G\t0/0",
		"0\t2\t20\t.\tA,G\t0/1",
	}, "\n")

	recs, err := readRecords(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(1), recs[0].Pos)
	assert.Equal(t, int64(2), recs[1].Pos)
}

func TestReadRecordsReportsLineNumberOnError(t *testing.T) {
	in := "0\t1\t10\t.\tA,G\t0/0\nbad\n"
	_, err := readRecords(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
