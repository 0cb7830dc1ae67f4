package genehood

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/clavelab/genehood/config"
)

// fakeSource serves fixture catalogs keyed by genome id (the bundle
// directory's base name).
type fakeSource struct {
	catalogs map[string]*GeneCatalog
	errs     map[string]error
}

func (s *fakeSource) LoadCatalog(dir string) (*GeneCatalog, error) {
	id := filepath.Base(dir)
	if err, ok := s.errs[id]; ok {
		return nil, err
	}
	if c, ok := s.catalogs[id]; ok {
		return c, nil
	}
	return nil, errors.New("no fixture catalog")
}

// fakeMatcher serves fixture hits keyed by "query|genome".
type fakeMatcher struct {
	hits map[string][]RawHit
	errs map[string]error
}

func (m *fakeMatcher) Match(ctx context.Context, query QuerySequence, genomeDir string) ([]RawHit, error) {
	key := query.ID + "|" + filepath.Base(genomeDir)
	if err, ok := m.errs[key]; ok {
		return nil, err
	}
	return m.hits[key], nil
}

// testRun builds a run over fixture genomes: every named genome gets a
// bundle directory, and the query FASTA holds a single 500 bp alleleA.
func testRun(t *testing.T, src *fakeSource, matcher SequenceMatcher, genomeIDs ...string) (*Runner, *config.Config) {
	t.Helper()

	dir := t.TempDir()
	annotations := filepath.Join(dir, "annotation")
	require.NoError(t, os.Mkdir(annotations, 0777))
	for _, id := range genomeIDs {
		require.NoError(t, os.Mkdir(filepath.Join(annotations, id), 0777))
	}

	queryPath := filepath.Join(dir, "queries.fa")
	require.NoError(t, os.WriteFile(queryPath, []byte(">alleleA\n"+seqOfLen(500)+"\n"), 0666))

	conf := &config.Config{
		QueryPath:     queryPath,
		AnnotationDir: annotations,
		OutputPath:    filepath.Join(dir, "neighborhoods.csv"),
		Window:        10000,
		MinIdentity:   90,
		MinCoverage:   80,
		Workers:       2,
		GenomeTimeout: time.Minute,
		IncludeAnchor: true,
		Quiet:         true,
	}

	return NewRunnerWith(conf, zap.NewNop().Sugar(), src, matcher), conf
}

func exactHit() []RawHit {
	return []RawHit{{
		Contig: "c1", Start: 12000, End: 12500, Strand: "+",
		Identity: 100, BitScore: 924, AlignLen: 500,
	}}
}

func readOutput(t *testing.T, conf *config.Config) []string {
	t.Helper()

	data, err := os.ReadFile(conf.OutputPath)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRunEndToEnd(t *testing.T) {
	src := &fakeSource{catalogs: map[string]*GeneCatalog{"genome1": threeGeneCatalog()}}
	matcher := &fakeMatcher{hits: map[string][]RawHit{"alleleA|genome1": exactHit()}}
	runner, conf := testRun(t, src, matcher, "genome1")

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Genomes: 1, Processed: 1, Skipped: 0, NoMatches: 0, Rows: 2}, summary)

	// g1 at [1000,1500] ends before the window [2000,22500]; g4 starts
	// after it; only g2 and the anchor g3 remain
	lines := readOutput(t, conf)
	require.Len(t, lines, 3)
	assert.Equal(t, "alleleA,genome1,c1,12000,12500,+,924.0,g2,3000,3500,-,hypothetical protein,-8500,false", lines[1])
	assert.Equal(t, "alleleA,genome1,c1,12000,12500,+,924.0,g3,12000,12500,+,marker,0,true", lines[2])
}

func TestRunRecordsNoMatch(t *testing.T) {
	src := &fakeSource{catalogs: map[string]*GeneCatalog{"genome1": threeGeneCatalog()}}
	matcher := &fakeMatcher{} // no hits at all
	runner, conf := testRun(t, src, matcher, "genome1")

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.NoMatches)
	assert.Equal(t, 1, summary.Rows)

	lines := readOutput(t, conf)
	require.Len(t, lines, 2)
	assert.Equal(t, "alleleA,genome1,,,,,,,,,,,,", lines[1])
}

func TestRunSkipsFailingGenome(t *testing.T) {
	src := &fakeSource{
		catalogs: map[string]*GeneCatalog{"genome1": threeGeneCatalog()},
		errs:     map[string]error{"genome2": errors.New("unparseable feature table")},
	}
	matcher := &fakeMatcher{hits: map[string][]RawHit{"alleleA|genome1": exactHit()}}
	runner, _ := testRun(t, src, matcher, "genome1", "genome2")

	summary, err := runner.Run(context.Background())
	require.NoError(t, err, "one genome's failure must not abort the batch")

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRunSkipsOnMatcherFailure(t *testing.T) {
	src := &fakeSource{catalogs: map[string]*GeneCatalog{
		"genome1": threeGeneCatalog(),
		"genome2": threeGeneCatalog(),
	}}
	matcher := &fakeMatcher{
		hits: map[string][]RawHit{"alleleA|genome1": exactHit()},
		errs: map[string]error{"alleleA|genome2": errors.New("blastn exploded")},
	}
	runner, _ := testRun(t, src, matcher, "genome1", "genome2")

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRunAllGenomesFail(t *testing.T) {
	src := &fakeSource{errs: map[string]error{"genome1": errors.New("no .gff file")}}
	runner, conf := testRun(t, src, &fakeMatcher{}, "genome1")

	summary, err := runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoGenomes)
	assert.Equal(t, 0, summary.Processed)

	// the table is still written, header only
	lines := readOutput(t, conf)
	assert.Len(t, lines, 1)
}

func TestRunEmptyAnnotationDirectory(t *testing.T) {
	runner, conf := testRun(t, &fakeSource{}, &fakeMatcher{})

	summary, err := runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoGenomes)
	assert.Equal(t, 0, summary.Genomes)

	lines := readOutput(t, conf)
	assert.Len(t, lines, 1)
}

// stallingMatcher blocks on the named genome until its context expires,
// as a hung external matcher would.
type stallingMatcher struct {
	genomeID string
	inner    *fakeMatcher
}

func (m *stallingMatcher) Match(ctx context.Context, query QuerySequence, genomeDir string) ([]RawHit, error) {
	if filepath.Base(genomeDir) == m.genomeID {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.inner.Match(ctx, query, genomeDir)
}

func TestRunTimesOutStalledGenome(t *testing.T) {
	src := &fakeSource{catalogs: map[string]*GeneCatalog{
		"genome1": threeGeneCatalog(),
		"genome2": threeGeneCatalog(),
	}}
	matcher := &stallingMatcher{
		genomeID: "genome2",
		inner:    &fakeMatcher{hits: map[string][]RawHit{"alleleA|genome1": exactHit()}},
	}
	runner, conf := testRun(t, src, matcher, "genome1", "genome2")
	conf.GenomeTimeout = 100 * time.Millisecond

	summary, err := runner.Run(context.Background())
	require.NoError(t, err, "a timed-out genome must be skipped, not abort the batch")

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Rows)
}

// a matched pair whose window holds no annotated features still leaves a
// "searched" trace in the log
func TestRunLogsEmptyNeighborhood(t *testing.T) {
	src := &fakeSource{catalogs: map[string]*GeneCatalog{"genome1": threeGeneCatalog()}}
	matcher := &fakeMatcher{hits: map[string][]RawHit{
		// an accepted hit on a contig the catalog never saw
		"alleleA|genome1": {{
			Contig: "c9", Start: 100, End: 600, Strand: "+",
			Identity: 100, BitScore: 924, AlignLen: 500,
		}},
	}}

	core, logs := observer.New(zap.DebugLevel)
	runner, _ := testRun(t, src, matcher, "genome1")
	runner.log = zap.New(core).Sugar()

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Rows)
	assert.Equal(t, 1, logs.FilterMessage("empty neighborhood").Len())
}

// concurrent workers must not leak completion order into the table
func TestRunDeterministicAcrossReruns(t *testing.T) {
	src := &fakeSource{catalogs: map[string]*GeneCatalog{
		"genome1": threeGeneCatalog(),
		"genome2": threeGeneCatalog(),
		"genome3": threeGeneCatalog(),
	}}
	matcher := &fakeMatcher{hits: map[string][]RawHit{
		"alleleA|genome1": exactHit(),
		"alleleA|genome2": exactHit(),
		"alleleA|genome3": exactHit(),
	}}

	var outputs []string
	for i := 0; i < 3; i++ {
		runner, conf := testRun(t, src, matcher, "genome1", "genome2", "genome3")
		_, err := runner.Run(context.Background())
		require.NoError(t, err)

		data, err := os.ReadFile(conf.OutputPath)
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}

	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
}
