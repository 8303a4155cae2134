// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\w+`)

// stopwords pruned from article text before term scoring. Kept short on
// purpose; embeddings carry the semantic load and the terms are evidence
// for human review.
var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "all": {}, "also": {}, "an": {},
	"and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "been": {},
	"but": {}, "by": {}, "can": {}, "could": {}, "for": {}, "from": {},
	"had": {}, "has": {}, "have": {}, "he": {}, "her": {}, "his": {},
	"in": {}, "into": {}, "is": {}, "it": {}, "its": {}, "more": {},
	"new": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {},
	"over": {}, "said": {}, "says": {}, "she": {}, "that": {}, "the": {},
	"their": {}, "they": {}, "this": {}, "to": {}, "was": {}, "were": {},
	"which": {}, "while": {}, "who": {}, "will": {}, "with": {}, "would": {},
}

// terms produces the unigram and bigram vocabulary of one document.
// Bigrams only join tokens that were adjacent after stopword removal.
func terms(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	kept := raw[:0:0]
	for _, tok := range raw {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		kept = append(kept, tok)
	}

	out := make([]string, 0, 2*len(kept))
	out = append(out, kept...)
	for i := 0; i+1 < len(kept); i++ {
		out = append(out, kept[i]+" "+kept[i+1])
	}
	return out
}

// tfidfVector scores one document's terms with smoothed idf over the
// pair and l2-normalizes the result.
func tfidfVector(doc []string, df map[string]int, nDocs int) map[string]float64 {
	tf := make(map[string]int, len(doc))
	for _, t := range doc {
		tf[t]++
	}

	vec := make(map[string]float64, len(tf))
	var norm float64
	for t, n := range tf {
		idf := math.Log(float64(1+nDocs)/float64(1+df[t])) + 1
		w := float64(n) * idf
		vec[t] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for t := range vec {
			vec[t] /= norm
		}
	}
	return vec
}

// SharedTerms returns the topN terms that carry weight in both texts,
// scored by the average of the two tf-idf weights, strongest first. Ties
// break by longer term first, then lexically, so the ordering is stable.
func SharedTerms(text1, text2 string, topN int) []string {
	doc1 := terms(text1)
	doc2 := terms(text2)
	if len(doc1) == 0 || len(doc2) == 0 {
		return nil
	}

	df := make(map[string]int)
	for _, doc := range [][]string{doc1, doc2} {
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	v1 := tfidfVector(doc1, df, 2)
	v2 := tfidfVector(doc2, df, 2)

	type scored struct {
		term  string
		score float64
	}
	var shared []scored
	for t, w1 := range v1 {
		if w2, ok := v2[t]; ok {
			shared = append(shared, scored{term: t, score: (w1 + w2) / 2})
		}
	}

	sort.Slice(shared, func(i, j int) bool {
		if shared[i].score != shared[j].score {
			return shared[i].score > shared[j].score
		}
		if len(shared[i].term) != len(shared[j].term) {
			return len(shared[i].term) > len(shared[j].term)
		}
		return shared[i].term < shared[j].term
	})

	if topN > 0 && len(shared) > topN {
		shared = shared[:topN]
	}
	out := make([]string, len(shared))
	for i, s := range shared {
		out[i] = s.term
	}
	return out
}
