package genehood

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// GFFSource loads a genome's gene catalog from the GFF3 feature table in
// its bundle directory. It implements AnnotationSource.
type GFFSource struct {
	log *zap.SugaredLogger
}

// NewGFFSource returns an AnnotationSource reading GFF3 bundles.
func NewGFFSource(log *zap.SugaredLogger) *GFFSource {
	return &GFFSource{log: log}
}

// LoadCatalog finds the GFF file in dir and parses its gene and CDS rows
// into a coordinate-sorted GeneCatalog. A malformed row is skipped with a
// warning; a missing or empty bundle is an error for the whole genome.
func (s *GFFSource) LoadCatalog(dir string) (*GeneCatalog, error) {
	gffPath, err := findGFF(dir)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(gffPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", gffPath, err)
	}
	defer f.Close()

	catalog := &GeneCatalog{
		Features:     map[string][]GeneFeature{},
		ContigLength: map[string]int{},
	}

	// gene and CDS rows from annotation pipelines usually describe the same
	// interval twice; keep one feature per interval, preferring the CDS row
	// because it carries the product annotation
	byInterval := map[string]int{} // contig:start-end -> index in Features[contig]

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")

		if strings.HasPrefix(line, "##FASTA") {
			break // embedded sequence section, features are done
		}
		if strings.HasPrefix(line, "##sequence-region") {
			fields := strings.Fields(line)
			if len(fields) == 4 {
				if end, err := strconv.Atoi(fields[3]); err == nil {
					catalog.ContigLength[fields[1]] = end
				}
			}
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) < 9 {
			continue
		}

		featureType := cols[2]
		if featureType != "gene" && featureType != "CDS" {
			continue
		}

		contig := cols[0]
		start, serr := strconv.Atoi(cols[3])
		end, eerr := strconv.Atoi(cols[4])
		if serr != nil || eerr != nil || start < 1 || end < start {
			s.log.Warnw("skipping malformed feature row",
				"file", gffPath, "line", lineNo)
			continue
		}

		feat := GeneFeature{
			Contig: contig,
			Start:  start,
			End:    end,
			Strand: cols[6],
			Type:   featureType,
		}
		parseAttributes(cols[8], &feat)
		if feat.ID == "" {
			s.log.Warnw("skipping feature row without an ID",
				"file", gffPath, "line", lineNo)
			continue
		}

		key := fmt.Sprintf("%s:%d-%d", contig, start, end)
		if i, dup := byInterval[key]; dup {
			prev := catalog.Features[contig][i]
			if featureType == "CDS" && prev.Type == "gene" {
				catalog.Features[contig][i] = feat
			}
			continue
		}
		byInterval[key] = len(catalog.Features[contig])
		catalog.Features[contig] = append(catalog.Features[contig], feat)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", gffPath, err)
	}

	if len(catalog.Features) == 0 {
		return nil, fmt.Errorf("no gene features in %s", gffPath)
	}

	for contig := range catalog.Features {
		feats := catalog.Features[contig]
		sort.Slice(feats, func(i, j int) bool {
			if feats[i].Start != feats[j].Start {
				return feats[i].Start < feats[j].Start
			}
			return feats[i].ID < feats[j].ID
		})
	}

	return catalog, nil
}

// findGFF returns the single feature table in a genome bundle directory.
func findGFF(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read bundle directory: %w", err)
	}

	var gffs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".gff" || ext == ".gff3" {
			gffs = append(gffs, filepath.Join(dir, e.Name()))
		}
	}

	if len(gffs) == 0 {
		return "", fmt.Errorf("no .gff file in %s", dir)
	}

	// deterministic pick if an annotation run left more than one behind
	sort.Strings(gffs)
	return gffs[0], nil
}

// parseAttributes fills feat from a GFF3 column-9 attribute string.
// The ortholog and GO fields come from an external functional mapper and
// are often absent.
func parseAttributes(attrs string, feat *GeneFeature) {
	for _, pair := range strings.Split(attrs, ";") {
		pair = strings.TrimSpace(pair)
		eq := strings.Index(pair, "=")
		if eq <= 0 {
			continue
		}
		key, val := pair[:eq], pair[eq+1:]

		switch key {
		case "ID":
			feat.ID = val
		case "locus_tag":
			if feat.ID == "" {
				feat.ID = val
			}
		case "product":
			feat.Product = val
		case "eggNOG":
			feat.Ortholog = val
		case "Ontology_term":
			feat.GOTerms = val
		}
	}
}
