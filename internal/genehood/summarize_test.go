package genehood

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "neighborhoods.csv")
	genomesOut := filepath.Join(dir, "genomes_summary.csv")
	genesOut := filepath.Join(dir, "genes_summary.csv")

	table := strings.Join([]string{
		strings.Join(csvHeader, ","),
		"q1,genomeB,c1,10,20,+,900.0,geneY,5,9,+,p,-1,false",
		"q1,genomeA,c1,10,20,+,900.0,geneX,5,9,+,p,-1,false",
		"q1,genomeA,c1,10,20,+,900.0,geneY,30,40,+,p,10,false",
		"q1,genomeA,c1,10,20,+,900.0,geneY,30,40,+,p,10,false", // duplicate
		"q2,genomeC,,,,,,,,,,,,",                               // no-match row
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(in, []byte(table), 0666))

	require.NoError(t, Summarize(in, genomesOut, genesOut))

	genomes, err := os.ReadFile(genomesOut)
	require.NoError(t, err)
	assert.Equal(t,
		"Genome,Neighbor_Count,Neighbor_1,Neighbor_2\n"+
			"genomeA,2,geneX,geneY\n"+
			"genomeB,1,geneY,\n",
		string(genomes))

	genes, err := os.ReadFile(genesOut)
	require.NoError(t, err)
	assert.Equal(t,
		"Gene_Name,Genome_Count,Genome_1,Genome_2\n"+
			"geneX,1,genomeA,\n"+
			"geneY,2,genomeA,genomeB\n",
		string(genes))
}

func TestSummarizeEmptyTable(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "neighborhoods.csv")
	require.NoError(t, os.WriteFile(in, []byte(strings.Join(csvHeader, ",")+"\n"), 0666))

	genomesOut := filepath.Join(dir, "genomes.csv")
	genesOut := filepath.Join(dir, "genes.csv")
	require.NoError(t, Summarize(in, genomesOut, genesOut))

	genomes, err := os.ReadFile(genomesOut)
	require.NoError(t, err)
	assert.Equal(t, "Genome,Neighbor_Count\n", string(genomes))
}

func TestSummarizeMissingColumns(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(in, []byte("a,b,c\n1,2,3\n"), 0666))

	err := Summarize(in, filepath.Join(dir, "x.csv"), filepath.Join(dir, "y.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing genome_id or neighbor_id")
}

func TestSummarizeMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := Summarize(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "x.csv"), filepath.Join(dir, "y.csv"))
	require.Error(t, err)
}
