// Package genehood locates the genomic neighborhood of marker-gene queries
// across a directory of independently annotated genomes and reports the
// neighboring genes as a flat table.
package genehood

import "context"

// QuerySequence is one record from the query FASTA. Immutable once loaded.
type QuerySequence struct {
	// ID from the FASTA header, unique within a run
	ID string

	// Description is the remainder of the header after the first whitespace
	Description string

	// Seq is the nucleotide sequence, uppercased, whitespace removed
	Seq string
}

// GeneFeature is one annotated gene from a genome's feature table.
// Coordinates are 1-based and inclusive, start <= end.
type GeneFeature struct {
	// ID of the gene/locus tag from the annotation
	ID string

	// Contig the feature sits on
	Contig string

	Start int
	End   int

	// Strand is "+" or "-"
	Strand string

	// Type of the source feature row (gene, CDS)
	Type string

	// Product is the functional annotation string, "" if absent
	Product string

	// Ortholog group assigned by an external mapper, "" if absent
	Ortholog string

	// GOTerms assigned by an external mapper, "" if absent
	GOTerms string
}

// Length of the feature in bp (coordinates are inclusive)
func (f GeneFeature) Length() int {
	return f.End - f.Start + 1
}

// GeneCatalog holds one genome's features keyed by contig name, each list
// sorted by start coordinate. Built once per genome, read-only afterward.
type GeneCatalog struct {
	// Features per contig, ascending by (start, id)
	Features map[string][]GeneFeature

	// ContigLength per contig from ##sequence-region pragmas; 0 when unknown
	ContigLength map[string]int
}

// RawHit is one candidate locus returned by the external matcher,
// before the engine's acceptance and tie-break policy is applied.
type RawHit struct {
	Contig   string
	Start    int
	End      int
	Strand   string
	Identity float64
	BitScore float64

	// AlignLen is the aligned length in bp, used for query coverage
	AlignLen int
}

// LocusHit is the single accepted locus for a (query, genome) pair.
type LocusHit struct {
	QueryID  string
	GenomeID string
	Contig   string
	Start    int
	End      int
	Strand   string
	Identity float64
	BitScore float64

	// Rank among accepted hits; always 1 under the single-best-hit policy
	Rank int
}

// Window is a neighborhood interval around a hit, clipped to contig bounds.
type Window struct {
	Start int
	End   int
}

// Record is one output row: a neighbor of a query's hit, or a no-match
// marker when a (query, genome) pair produced no acceptable hit.
type Record struct {
	QueryID  string
	GenomeID string

	// hit locus; zero values when NoMatch
	Contig    string
	HitStart  int
	HitEnd    int
	HitStrand string
	HitScore  float64

	// neighbor feature; zero values when NoMatch
	NeighborID      string
	NeighborStart   int
	NeighborEnd     int
	NeighborStrand  string
	NeighborProduct string

	// Distance in bp from the hit interval: 0 for overlap, negative
	// upstream of the hit, positive downstream
	Distance int

	// IsAnchor marks the feature overlapping the hit interval itself
	IsAnchor bool

	// NoMatch marks a searched (query, genome) pair with no acceptable hit
	NoMatch bool
}

// AnnotationSource loads one genome's gene catalog from its bundle
// directory. Implemented by the GFF reader; faked in tests.
type AnnotationSource interface {
	LoadCatalog(dir string) (*GeneCatalog, error)
}

// SequenceMatcher finds candidate loci for a query in one genome's sequence
// space. Implemented by the blastn wrapper; faked in tests. The matcher
// returns raw candidates only: acceptance and tie-breaking belong to the
// engine.
type SequenceMatcher interface {
	Match(ctx context.Context, query QuerySequence, genomeDir string) ([]RawHit, error)
}
