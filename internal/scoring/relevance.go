package scoring

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Relevance scores how close the candidate text is to the job description, in [0,100].
// A blank job description scores 0 without building any vectors.
// The vector space is fit on the two texts alone, so scores only compare across
// candidates measured against the same job description.
func Relevance(candidateText, jobDescription string) float64 {
	if strings.TrimSpace(jobDescription) == "" {
		return 0
	}

	cv := terms(candidateText)
	jd := terms(jobDescription)
	if len(cv) == 0 && len(jd) == 0 {
		return 0
	}

	// smooth idf over two documents: ln(3/(1+df)) + 1
	idf := func(term string) float64 {
		df := 0
		if cv[term] > 0 {
			df++
		}
		if jd[term] > 0 {
			df++
		}
		return math.Log(3/float64(1+df)) + 1
	}

	cvVec := weigh(cv, idf)
	jdVec := weigh(jd, idf)

	// sums run in sorted term order so the result never depends on map iteration
	sim := 0.0
	for _, term := range sortedKeys(cvVec) {
		sim += cvVec[term] * jdVec[term]
	}

	return round2(sim * 100)
}

// terms counts the unigrams and bigrams left after stop-word removal
func terms(text string) map[string]int {
	var tokens []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopWords[tok]; !stop {
			tokens = append(tokens, tok)
		}
	}

	counts := make(map[string]int, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok]++
		}
	}
	return counts
}

// weigh applies tf·idf and L2 normalisation
func weigh(counts map[string]int, idf func(string) float64) map[string]float64 {
	vec := make(map[string]float64, len(counts))
	norm := 0.0
	for _, term := range sortedKeys(counts) {
		w := float64(counts[term]) * idf(term)
		vec[term] = w
		norm += w * w
	}
	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	for term := range vec {
		vec[term] /= norm
	}
	return vec
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
