package genehood

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
)

// csvHeader is the output column contract, one row per neighborhood record.
var csvHeader = []string{
	"query_id", "genome_id", "contig",
	"hit_start", "hit_end", "hit_strand", "hit_score",
	"neighbor_id", "neighbor_start", "neighbor_end",
	"neighbor_strand", "neighbor_product",
	"distance", "is_anchor",
}

// Aggregator collects rows from concurrent per-genome workers and emits a
// single deterministic table. It is the run's only cross-genome merge
// point: Append serializes, ordering comes from the final sort, never from
// worker completion order.
type Aggregator struct {
	mu   sync.Mutex
	rows []Record
}

// NewAggregator returns an empty row collector.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Append adds one genome's rows. Safe for concurrent use.
func (a *Aggregator) Append(rows []Record) {
	a.mu.Lock()
	a.rows = append(a.rows, rows...)
	a.mu.Unlock()
}

// Len returns the number of collected rows.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rows)
}

// sortRows orders the table by query id, genome id, then coordinate within
// the genome's contig. Re-running on unchanged input yields byte-identical
// output.
func (a *Aggregator) sortRows() {
	sort.Slice(a.rows, func(i, j int) bool {
		ri, rj := a.rows[i], a.rows[j]
		if ri.QueryID != rj.QueryID {
			return ri.QueryID < rj.QueryID
		}
		if ri.GenomeID != rj.GenomeID {
			return ri.GenomeID < rj.GenomeID
		}
		if ri.Contig != rj.Contig {
			return ri.Contig < rj.Contig
		}
		if ri.NeighborStart != rj.NeighborStart {
			return ri.NeighborStart < rj.NeighborStart
		}
		return ri.NeighborID < rj.NeighborID
	})
}

// WriteCSV sorts the collected rows and writes the full table, header
// included, to w. The header is written even when there are no rows.
func (a *Aggregator) WriteCSV(w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sortRows()

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}

	for _, r := range a.rows {
		if err := cw.Write(r.fields()); err != nil {
			return fmt.Errorf("failed to write output row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// fields renders one record as CSV columns. A no-match row keeps only the
// query and genome identifiers so downstream consumers can tell "searched,
// no hit" apart from "not searched".
func (r Record) fields() []string {
	if r.NoMatch {
		return []string{
			r.QueryID, r.GenomeID, "",
			"", "", "", "",
			"", "", "", "", "",
			"", "",
		}
	}

	return []string{
		r.QueryID,
		r.GenomeID,
		r.Contig,
		strconv.Itoa(r.HitStart),
		strconv.Itoa(r.HitEnd),
		r.HitStrand,
		strconv.FormatFloat(r.HitScore, 'f', 1, 64),
		r.NeighborID,
		strconv.Itoa(r.NeighborStart),
		strconv.Itoa(r.NeighborEnd),
		r.NeighborStrand,
		r.NeighborProduct,
		strconv.Itoa(r.Distance),
		strconv.FormatBool(r.IsAnchor),
	}
}

// NoMatchRecord builds the single explicit row for a searched
// (query, genome) pair that produced no acceptable hit.
func NoMatchRecord(queryID, genomeID string) Record {
	return Record{QueryID: queryID, GenomeID: genomeID, NoMatch: true}
}

// NeighborRecord builds one output row for a neighbor of a hit.
func NeighborRecord(hit LocusHit, f GeneFeature) Record {
	return Record{
		QueryID:         hit.QueryID,
		GenomeID:        hit.GenomeID,
		Contig:          hit.Contig,
		HitStart:        hit.Start,
		HitEnd:          hit.End,
		HitStrand:       hit.Strand,
		HitScore:        hit.BitScore,
		NeighborID:      f.ID,
		NeighborStart:   f.Start,
		NeighborEnd:     f.End,
		NeighborStrand:  f.Strand,
		NeighborProduct: f.Product,
		Distance:        Distance(f, hit),
		IsAnchor:        overlaps(f, hit.Start, hit.End),
	}
}
