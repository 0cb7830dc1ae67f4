package genehood

import "sort"

// SelectBest applies the engine's acceptance and tie-break policy to the
// raw candidates for one (query, genome) pair and returns the single best
// hit. Candidates under the identity or query-coverage thresholds are
// dropped. Among the survivors the highest bitscore wins; exact score ties
// go to the lowest contig name, then the lowest start coordinate, so the
// selection is reproducible between runs.
//
// ok is false when no candidate was acceptable: the pair is a no-match,
// not an error.
func SelectBest(query QuerySequence, genomeID string, hits []RawHit, minIdentity, minCoverage float64) (LocusHit, bool) {
	var accepted []RawHit
	for _, h := range hits {
		if h.Identity < minIdentity {
			continue
		}
		if len(query.Seq) > 0 {
			coverage := float64(h.AlignLen) / float64(len(query.Seq)) * 100
			if coverage < minCoverage {
				continue
			}
		}
		accepted = append(accepted, h)
	}

	if len(accepted) == 0 {
		return LocusHit{}, false
	}

	sort.Slice(accepted, func(i, j int) bool {
		if accepted[i].BitScore != accepted[j].BitScore {
			return accepted[i].BitScore > accepted[j].BitScore
		}
		if accepted[i].Contig != accepted[j].Contig {
			return accepted[i].Contig < accepted[j].Contig
		}
		return accepted[i].Start < accepted[j].Start
	})

	best := accepted[0]
	return LocusHit{
		QueryID:  query.ID,
		GenomeID: genomeID,
		Contig:   best.Contig,
		Start:    best.Start,
		End:      best.End,
		Strand:   best.Strand,
		Identity: best.Identity,
		BitScore: best.BitScore,
		Rank:     1,
	}, true
}
