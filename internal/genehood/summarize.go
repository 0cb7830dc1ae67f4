package genehood

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// Summarize reads a neighborhood table produced by a run and writes two
// pivoted reports: a genome-centric one (each genome with its unique
// neighbor genes) and a gene-centric one (each neighbor gene with the
// genomes it appears next to). No-match rows are excluded.
func Summarize(inPath, genomesOut, genesOut string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open input table: %w", err)
	}
	defer in.Close()

	byGenome, byGene, err := collectSets(in)
	if err != nil {
		return err
	}

	if err := writePivot(genomesOut, "Genome", "Neighbor", byGenome); err != nil {
		return err
	}
	return writePivot(genesOut, "Gene_Name", "Genome", byGene)
}

// collectSets builds the genome->neighbors and neighbor->genomes sets from
// the neighborhood CSV.
func collectSets(in io.Reader) (map[string]map[string]bool, map[string]map[string]bool, error) {
	r := csv.NewReader(in)

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input table header: %w", err)
	}

	genomeCol, neighborCol := -1, -1
	for i, name := range header {
		switch name {
		case "genome_id":
			genomeCol = i
		case "neighbor_id":
			neighborCol = i
		}
	}
	if genomeCol < 0 || neighborCol < 0 {
		return nil, nil, fmt.Errorf("input table is missing genome_id or neighbor_id columns")
	}

	byGenome := map[string]map[string]bool{}
	byGene := map[string]map[string]bool{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read input table row: %w", err)
		}

		genomeID := row[genomeCol]
		neighborID := row[neighborCol]
		if genomeID == "" || neighborID == "" {
			continue // no-match rows carry no neighbor
		}

		if byGenome[genomeID] == nil {
			byGenome[genomeID] = map[string]bool{}
		}
		byGenome[genomeID][neighborID] = true

		if byGene[neighborID] == nil {
			byGene[neighborID] = map[string]bool{}
		}
		byGene[neighborID][genomeID] = true
	}

	return byGenome, byGene, nil
}

// writePivot writes one summary table: a row per key with its count and
// sorted members, all rows padded to the widest member list.
func writePivot(path, keyName, memberName string, sets map[string]map[string]bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	maxMembers := 0
	for _, members := range sets {
		if len(members) > maxMembers {
			maxMembers = len(members)
		}
	}

	header := []string{keyName, memberName + "_Count"}
	for i := 0; i < maxMembers; i++ {
		header = append(header, memberName+"_"+strconv.Itoa(i+1))
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}

	keys := make([]string, 0, len(sets))
	for k := range sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		members := make([]string, 0, len(sets[k]))
		for m := range sets[k] {
			members = append(members, m)
		}
		sort.Strings(members)

		row := append([]string{k, strconv.Itoa(len(members))}, members...)
		for len(row) < len(header) {
			row = append(row, "")
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
