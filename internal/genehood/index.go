package genehood

import "sort"

// contigIndex is an ordered index over one contig's features. Features are
// sorted by start; maxLen bounds how far back of the window a feature can
// start and still overlap it, which turns the range query into a binary
// search plus a short forward scan.
type contigIndex struct {
	features []GeneFeature
	length   int // contig length in bp, 0 when unknown
	maxLen   int // longest feature on the contig
}

// Index answers "all genes overlapping [a,b]" queries for one genome.
type Index struct {
	contigs map[string]*contigIndex
}

// NewIndex builds the per-contig ordered index over a catalog's coordinates.
// The catalog's feature lists are already start-sorted.
func NewIndex(catalog *GeneCatalog) *Index {
	idx := &Index{contigs: map[string]*contigIndex{}}

	for contig, feats := range catalog.Features {
		ci := &contigIndex{
			features: feats,
			length:   catalog.ContigLength[contig],
		}
		for _, f := range feats {
			if l := f.Length(); l > ci.maxLen {
				ci.maxLen = l
			}
		}
		idx.contigs[contig] = ci
	}

	return idx
}

// WindowAround derives the neighborhood window for a hit: the hit interval
// extended by window bp on both sides, clipped to the contig's coordinate
// space. When the contig length is unknown only the lower bound is clipped.
func (idx *Index) WindowAround(hit LocusHit, window int) Window {
	w := Window{Start: hit.Start - window, End: hit.End + window}
	if w.Start < 1 {
		w.Start = 1
	}

	if ci, ok := idx.contigs[hit.Contig]; ok && ci.length > 0 && w.End > ci.length {
		w.End = ci.length
	}

	return w
}

// Query returns every feature on the hit's contig overlapping the window,
// ascending by (start, id). Features overlapping the hit interval itself
// are the anchors; they are dropped when includeAnchor is false.
func (idx *Index) Query(hit LocusHit, w Window, includeAnchor bool) []GeneFeature {
	ci, ok := idx.contigs[hit.Contig]
	if !ok {
		return nil
	}

	// first feature that could still overlap the window: anything starting
	// before w.Start-maxLen must end before w.Start
	lo := sort.Search(len(ci.features), func(i int) bool {
		return ci.features[i].Start >= w.Start-ci.maxLen
	})

	var out []GeneFeature
	for i := lo; i < len(ci.features); i++ {
		f := ci.features[i]
		if f.Start > w.End {
			break
		}
		if f.End < w.Start {
			continue
		}
		if !includeAnchor && overlaps(f, hit.Start, hit.End) {
			continue
		}
		out = append(out, f)
	}

	return out
}

// Distance returns the signed gap in bp between a feature and the hit
// interval: 0 for any overlap, negative when the feature is upstream of
// the hit, positive when downstream.
func Distance(f GeneFeature, hit LocusHit) int {
	if f.End < hit.Start {
		return -(hit.Start - f.End)
	}
	if f.Start > hit.End {
		return f.Start - hit.End
	}
	return 0
}

func overlaps(f GeneFeature, start, end int) bool {
	return f.Start <= end && f.End >= start
}
