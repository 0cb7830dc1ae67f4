package genehood

import (
	"errors"
	"fmt"
)

// ErrNoGenomes is returned by Run when genomes were targeted but none
// could be processed.
var ErrNoGenomes = errors.New("no genomes could be processed")

// ErrNoQueries is returned when the query FASTA held no records.
var ErrNoQueries = errors.New("no query sequences found")

// SkipError marks a genome-level failure: the genome is logged and skipped,
// the batch continues. It never propagates past the driver.
type SkipError struct {
	GenomeID string
	Err      error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("genome %s skipped: %v", e.GenomeID, e.Err)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

// skip wraps err as a SkipError for the named genome.
func skip(genomeID string, err error) *SkipError {
	return &SkipError{GenomeID: genomeID, Err: err}
}
