package ranker

import "sort"

// Weights controls how much each scoring dimension contributes to the
// final hybrid score. They need not sum to 1 on input; Normalize rescales
// them so they do.
type Weights struct {
	Semantic float32
	Fuzzy    float32
	Keyword  float32
}

// DefaultWeights returns the package defaults: 0.7 semantic, 0.15 fuzzy, 0.15 keyword.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.7, Fuzzy: 0.15, Keyword: 0.15}
}

// Normalize rescales w so its components sum to 1. Weights that sum to
// zero or are negative fall back to DefaultWeights.
func (w Weights) Normalize() Weights {
	if w.Semantic < 0 || w.Fuzzy < 0 || w.Keyword < 0 {
		return DefaultWeights()
	}

	sum := w.Semantic + w.Fuzzy + w.Keyword
	if sum <= 0 {
		return DefaultWeights()
	}

	return Weights{
		Semantic: w.Semantic / sum,
		Fuzzy:    w.Fuzzy / sum,
		Keyword:  w.Keyword / sum,
	}
}

// Candidate holds the raw, un-normalized scores for a single item before ranking.
type Candidate struct {
	ID       string
	Semantic float32
	Fuzzy    float32
	Keyword  float32
}

// Explain describes how a candidate's final score was derived.
type Explain struct {
	Raw        Candidate
	Normalized Candidate
	Weights    Weights
}

// Scored is a ranked candidate with its combined score and, optionally, an explanation.
type Scored struct {
	ID      string
	Score   float32
	Explain *Explain
}

// Rank normalizes each scoring dimension across candidates (min-max) and
// combines them using weights into a single descending-sorted ranking.
// When explain is true, each result carries the raw and normalized
// component scores plus the effective weights used.
func Rank(candidates []Candidate, weights Weights, explain bool) []Scored {
	w := weights.Normalize()

	semantic := make([]float32, len(candidates))
	fuzzy := make([]float32, len(candidates))
	keyword := make([]float32, len(candidates))

	for i, c := range candidates {
		semantic[i] = c.Semantic
		fuzzy[i] = c.Fuzzy
		keyword[i] = c.Keyword
	}

	normSemantic := minMaxNormalize(semantic)
	normFuzzy := minMaxNormalize(fuzzy)
	normKeyword := minMaxNormalize(keyword)

	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		score := w.Semantic*normSemantic[i] + w.Fuzzy*normFuzzy[i] + w.Keyword*normKeyword[i]

		scored := Scored{ID: c.ID, Score: score}
		if explain {
			scored.Explain = &Explain{
				Raw: c,
				Normalized: Candidate{
					ID:       c.ID,
					Semantic: normSemantic[i],
					Fuzzy:    normFuzzy[i],
					Keyword:  normKeyword[i],
				},
				Weights: w,
			}
		}

		out[i] = scored
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	return out
}

// minMaxNormalize rescales values into [0, 1] relative to their own min
// and max. When the batch has no variance, every positive value maps to
// 1 and zero maps to 0, so an all-zero component (e.g. no keyword hits
// anywhere in the batch) does not get silently boosted to a full score.
func minMaxNormalize(values []float32) []float32 {
	out := make([]float32, len(values))
	if len(values) == 0 {
		return out
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	spread := max - min
	for i, v := range values {
		if spread == 0 {
			if v > 0 {
				out[i] = 1
			}
			continue
		}

		out[i] = (v - min) / spread
	}

	return out
}
