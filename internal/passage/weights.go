package passage

import "fmt"

// BigramFactor scales the weaker term weight of an adjacent query-term pair.
const BigramFactor = 0.25

// Weights holds the inverse-document-frequency weight of every query term
// and of every adjacent pair of query terms.
type Weights struct {
	Terms   map[string]float64
	Bigrams map[string]float64
}

// DocFreqFunc reports how many documents contain term in the ranked field.
type DocFreqFunc func(term string) (int, error)

// ComputeWeights weights each term 1/docFreq, or 0 when no document
// contains it. Each pair of consecutive query terms gets a bigram weight of
// BigramFactor times the smaller of the two term weights.
func ComputeWeights(terms []string, docFreq DocFreqFunc) (Weights, error) {
	w := Weights{
		Terms:   make(map[string]float64, len(terms)),
		Bigrams: make(map[string]float64, len(terms)),
	}
	for _, term := range terms {
		if _, ok := w.Terms[term]; ok {
			continue
		}
		df, err := docFreq(term)
		if err != nil {
			return Weights{}, fmt.Errorf("doc freq for %q: %w", term, err)
		}
		w.Terms[term] = TermWeight(df)
	}
	for i := 1; i < len(terms); i++ {
		w.Bigrams[BigramKey(terms[i-1], terms[i])] = BigramWeight(w.Terms[terms[i-1]], w.Terms[terms[i]])
	}
	return w, nil
}

// TermWeight is the inverse document frequency of a term, 0 for unseen
// terms.
func TermWeight(docFreq int) float64 {
	if docFreq <= 0 {
		return 0
	}
	return 1 / float64(docFreq)
}

func BigramWeight(first, second float64) float64 {
	return min(first, second) * BigramFactor
}
