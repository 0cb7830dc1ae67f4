package genehood

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clavelab/genehood/config"
)

// genome is one discovered annotation bundle: its id is the bundle
// directory's name.
type genome struct {
	id  string
	dir string
}

// Summary is the final state of a run.
type Summary struct {
	// Genomes discovered under the annotation directory
	Genomes int

	// Processed genomes that contributed rows (or no-match rows)
	Processed int

	// Skipped genomes (missing bundle, parse error, matcher failure)
	Skipped int

	// NoMatches is the count of (query, genome) pairs with no acceptable hit
	NoMatches int

	// Rows emitted to the output table, no-match rows included
	Rows int
}

// Runner drives one neighborhood-extraction run: it discovers genomes,
// fans each one out to a bounded worker, and merges the rows into a single
// ordered table. All state is scoped to the run; nothing ambient.
type Runner struct {
	conf    *config.Config
	log     *zap.SugaredLogger
	src     AnnotationSource
	matcher SequenceMatcher
	runID   string
}

// NewRunner wires a Runner with the real GFF reader and blastn matcher.
func NewRunner(conf *config.Config, log *zap.SugaredLogger) *Runner {
	runID := uuid.NewString()
	log = log.With("run", runID)

	return &Runner{
		conf:    conf,
		log:     log,
		src:     NewGFFSource(log),
		matcher: &BlastnMatcher{Blastn: conf.BlastnPath},
		runID:   runID,
	}
}

// NewRunnerWith wires a Runner with caller-supplied collaborators.
// Used by tests to run the engine against fixture catalogs and hits.
func NewRunnerWith(conf *config.Config, log *zap.SugaredLogger, src AnnotationSource, matcher SequenceMatcher) *Runner {
	return &Runner{
		conf:    conf,
		log:     log,
		src:     src,
		matcher: matcher,
		runID:   uuid.NewString(),
	}
}

// Run executes the batch: every genome under the annotation directory is
// processed independently; a failing genome is logged and skipped, never
// aborting the batch. The output table is written once, after a
// deterministic sort of all collected rows. It returns ErrNoGenomes when
// nothing was processable.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	queries, err := ReadQueries(r.conf.QueryPath)
	if err != nil {
		return Summary{}, err
	}
	r.log.Infow("loaded queries", "count", len(queries))

	genomes, err := discoverGenomes(r.conf.AnnotationDir)
	if err != nil {
		return Summary{}, err
	}
	r.log.Infow("discovered genomes", "count", len(genomes))

	var (
		agg       = NewAggregator()
		processed atomic.Int64
		skipped   atomic.Int64
		noMatches atomic.Int64
	)

	var bar *pb.ProgressBar
	if !r.conf.Quiet && len(genomes) > 0 {
		bar = pb.StartNew(len(genomes))
		bar.Set("prefix", "genomes: ")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.conf.Workers)

	for _, gen := range genomes {
		gen := gen
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			rows, noMatch, err := r.processGenome(gctx, gen, queries)
			if bar != nil {
				bar.Increment()
			}
			if err != nil {
				// a single genome's failure never aborts the batch
				r.log.Warnw("skipping genome", "genome", gen.id, "error", err)
				skipped.Add(1)
				return nil
			}

			agg.Append(rows)
			processed.Add(1)
			noMatches.Add(int64(noMatch))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	if bar != nil {
		bar.Finish()
	}

	out, err := os.Create(r.conf.OutputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := agg.WriteCSV(out); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Genomes:   len(genomes),
		Processed: int(processed.Load()),
		Skipped:   int(skipped.Load()),
		NoMatches: int(noMatches.Load()),
		Rows:      agg.Len(),
	}

	r.log.Infow("run complete",
		"genomes", summary.Genomes,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"no_matches", summary.NoMatches,
		"rows", humanize.Comma(int64(summary.Rows)),
		"output", r.conf.OutputPath,
	)

	if summary.Processed == 0 {
		return summary, ErrNoGenomes
	}

	return summary, nil
}

// processGenome runs the per-genome pipeline: load the catalog, match every
// query, window-query the index, build rows. Failures are genome-scoped.
func (r *Runner) processGenome(ctx context.Context, gen genome, queries []QuerySequence) ([]Record, int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.conf.GenomeTimeout)
	defer cancel()

	catalog, err := r.src.LoadCatalog(gen.dir)
	if err != nil {
		return nil, 0, skip(gen.id, err)
	}

	idx := NewIndex(catalog)

	var (
		rows    []Record
		noMatch int
	)
	for _, q := range queries {
		hits, err := r.matcher.Match(ctx, q, gen.dir)
		if err != nil {
			return nil, 0, skip(gen.id, err)
		}

		hit, ok := SelectBest(q, gen.id, hits, r.conf.MinIdentity, r.conf.MinCoverage)
		if !ok {
			r.log.Debugw("no match", "query", q.ID, "genome", gen.id)
			rows = append(rows, NoMatchRecord(q.ID, gen.id))
			noMatch++
			continue
		}

		w := idx.WindowAround(hit, r.conf.Window)
		feats := idx.Query(hit, w, r.conf.IncludeAnchor)
		if len(feats) == 0 {
			// the pair was searched and matched, it just has nothing
			// annotated in the window
			r.log.Debugw("empty neighborhood",
				"query", q.ID, "genome", gen.id, "contig", hit.Contig)
		}
		for _, f := range feats {
			rows = append(rows, NeighborRecord(hit, f))
		}
	}

	return rows, noMatch, nil
}

// discoverGenomes lists the per-genome bundle subdirectories under dir,
// sorted by name. The subdirectory name is the genome's id.
func discoverGenomes(dir string) ([]genome, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation directory: %w", err)
	}

	var genomes []genome
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		genomes = append(genomes, genome{
			id:  e.Name(),
			dir: filepath.Join(dir, e.Name()),
		})
	}

	sort.Slice(genomes, func(i, j int) bool { return genomes[i].id < genomes[j].id })
	return genomes, nil
}
