package genehood

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// BlastnMatcher finds candidate loci by running blastn with the genome's
// FASTA as the subject. It implements SequenceMatcher and is safe for
// concurrent use: every invocation gets its own scratch directory.
type BlastnMatcher struct {
	// Blastn is the path to the blastn executable
	Blastn string

	// TmpDir is where per-invocation scratch directories are created;
	// defaults to the OS temp dir
	TmpDir string
}

// blastExec holds the file paths for a single blastn invocation.
type blastExec struct {
	blastn  string
	in      string // query FASTA written for this invocation
	out     string // tabular blastn output
	subject string // the genome's FASTA
}

// Match writes the query to a temp file, runs blastn against the genome's
// FASTA and parses the tabular output into raw hits. Acceptance thresholds
// and tie-breaking are the caller's concern.
func (m *BlastnMatcher) Match(ctx context.Context, query QuerySequence, genomeDir string) ([]RawHit, error) {
	subject, err := findGenomeFasta(genomeDir)
	if err != nil {
		return nil, err
	}

	// concurrent workers match the same queries against different
	// genomes, so the scratch files must be invocation-private
	tmp, err := os.MkdirTemp(m.TmpDir, "genehood-blast-")
	if err != nil {
		return nil, fmt.Errorf("failed to create blastn scratch directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	b := &blastExec{
		blastn:  m.Blastn,
		in:      filepath.Join(tmp, "query.input.fa"),
		out:     filepath.Join(tmp, "blast.output"),
		subject: subject,
	}

	if err := b.create(query); err != nil {
		return nil, fmt.Errorf("failed to create blastn input file at %s: %w", b.in, err)
	}

	if err := b.run(ctx); err != nil {
		return nil, err
	}

	return b.parse()
}

// create writes the query sequence file for blastn.
func (b *blastExec) create(query QuerySequence) error {
	file := fmt.Sprintf(">%s\n%s\n", query.ID, query.Seq)
	return os.WriteFile(b.in, []byte(file), 0666)
}

// run calls the external blastn binary against the subject FASTA.
func (b *blastExec) run(ctx context.Context) error {
	// https://www.ncbi.nlm.nih.gov/books/NBK279684/
	blastCmd := exec.CommandContext(
		ctx,
		b.blastn,
		"-task", "blastn",
		"-query", b.in,
		"-subject", b.subject,
		"-out", b.out,
		"-outfmt", "6 sseqid sstart send pident bitscore length",
	)

	if output, err := blastCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to execute blastn against %s: %w: %s", b.subject, err, string(output))
	}

	return nil
}

// parse reads the tabular output file into raw hits. blastn reports the
// subject range in alignment order, so a reversed range means the hit is
// on the minus strand.
func (b *blastExec) parse() (hits []RawHit, err error) {
	file, err := os.ReadFile(b.out)
	if err != nil {
		return nil, fmt.Errorf("failed to read blastn output: %w", err)
	}

	for _, line := range strings.Split(string(file), "\n") {
		// comment lines start with a # (outfmt 7 compatibility)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Fields(line)
		if len(cols) < 6 {
			continue
		}

		start, serr := strconv.Atoi(cols[1])
		end, eerr := strconv.Atoi(cols[2])
		identity, ierr := strconv.ParseFloat(cols[3], 64)
		bitscore, berr := strconv.ParseFloat(cols[4], 64)
		alignLen, lerr := strconv.Atoi(cols[5])
		if serr != nil || eerr != nil || ierr != nil || berr != nil || lerr != nil {
			continue
		}

		strand := "+"
		if start > end {
			start, end = end, start
			strand = "-"
		}

		hits = append(hits, RawHit{
			Contig:   cols[0],
			Start:    start,
			End:      end,
			Strand:   strand,
			Identity: identity,
			BitScore: bitscore,
			AlignLen: alignLen,
		})
	}

	return hits, nil
}

// findGenomeFasta returns the genome sequence FASTA inside a bundle
// directory, preferring the conventional annotation-pipeline extensions.
func findGenomeFasta(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read bundle directory: %w", err)
	}

	// .fna is the assembled genome; .fa/.fasta are accepted fallbacks.
	// .ffn/.faa are per-gene records and never the subject.
	for _, ext := range []string{".fna", ".fa", ".fasta"} {
		var found []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.ToLower(filepath.Ext(e.Name())) == ext {
				found = append(found, filepath.Join(dir, e.Name()))
			}
		}
		if len(found) > 0 {
			sort.Strings(found)
			return found[0], nil
		}
	}

	return "", fmt.Errorf("no genome FASTA in %s", dir)
}
