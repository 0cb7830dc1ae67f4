package genehood

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// nonBpRegex strips anything that isn't a recognized nucleotide code.
// IUPAC ambiguity codes are kept: the matcher, not the reader, decides
// what to do with them.
var nonBpRegex = regexp.MustCompile(`(?i)[^acgtryswkmbdhvn]`)

// ReadQueries parses a multi-record query FASTA from path. Record IDs must
// be unique within the file; a duplicate is a configuration error because
// downstream rows are keyed by query ID.
func ReadQueries(path string) ([]QuerySequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open query file: %w", err)
	}
	defer f.Close()

	var (
		queries []QuerySequence
		seen    = map[string]bool{}
		current *QuerySequence
		seq     strings.Builder
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Seq = strings.ToUpper(nonBpRegex.ReplaceAllString(seq.String(), ""))
		queries = append(queries, *current)
		current = nil
		seq.Reset()
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024) // long sequence lines
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ">") {
			flush()

			header := strings.TrimSpace(line[1:])
			id, desc := header, ""
			if i := strings.IndexAny(header, " \t"); i >= 0 {
				id, desc = header[:i], strings.TrimSpace(header[i+1:])
			}

			if id == "" {
				return nil, fmt.Errorf("failed to parse query header %q in %s", line, path)
			}
			if seen[id] {
				return nil, fmt.Errorf("duplicate query id %q in %s", id, path)
			}
			seen[id] = true

			current = &QuerySequence{ID: id, Description: desc}
			continue
		}

		if current == nil {
			return nil, fmt.Errorf("failed to parse %s: sequence before first FASTA header", path)
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	flush()

	if len(queries) == 0 {
		return nil, ErrNoQueries
	}

	return queries, nil
}
