// Package comparison scores pairs of policy texts and shapes the narrative
// output of the AI comparison into sections.
package comparison

import (
	"math"
	"slices"
	"strings"
	"unicode"
)

const maxFeatures = 1000

// A compact English stop list; tokens shorter than two runes never reach it.
var stopWords = toSet(strings.Fields(`
about above across after afterwards again against all almost alone along already
also although always am among amongst an and another any anyhow anyone anything
anyway anywhere are around as at be became because become becomes becoming been
before beforehand behind being below beside besides between beyond both but by can
cannot could do does done down due during each either else elsewhere enough etc even
ever every everyone everything everywhere except few for former formerly from further
had has have he hence her here hereafter hereby herein hers herself him himself his
how however ie if in inc indeed into is it its itself last latter latterly least less
ltd many may me meanwhile might more moreover most mostly much must my myself namely
neither never nevertheless next no nobody none noone nor not nothing now nowhere of
off often on once one only onto or other others otherwise our ours ourselves out over
own per perhaps please rather re same seem seemed seeming seems several she should
since so some somehow someone something sometime sometimes somewhere still such than
that the their them themselves then thence there thereafter thereby therefore therein
thereupon these they this those though through throughout thru thus to together too
toward towards under until up upon us very via was we well were what whatever when
whence whenever where whereafter whereas whereby wherein whereupon wherever whether
which while whither who whoever whole whom whose why will with within without would
yet you your yours yourself yourselves`))

func toSet(words []string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// tokenize lowercases s and splits it into runs of letters, digits and
// underscores of at least two runes.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 64)
	var b strings.Builder
	n := 0
	flush := func() {
		if n >= 2 {
			out = append(out, b.String())
		}
		b.Reset()
		n = 0
	}
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			n++
			continue
		}
		flush()
	}
	flush()
	return out
}

// terms returns unigrams and bigrams after stop-word removal.
func terms(s string) []string {
	tokens := tokenize(s)
	kept := tokens[:0]
	for _, t := range tokens {
		if _, stop := stopWords[t]; !stop {
			kept = append(kept, t)
		}
	}
	out := make([]string, 0, 2*len(kept))
	out = append(out, kept...)
	for i := 0; i+1 < len(kept); i++ {
		out = append(out, kept[i]+" "+kept[i+1])
	}
	return out
}

// CosineSimilarity fits a TF-IDF model on the two texts and returns the cosine
// of their vectors in [0,1]. Empty input or an empty vocabulary yields 0.
func CosineSimilarity(text1, text2 string) float64 {
	if strings.TrimSpace(text1) == "" || strings.TrimSpace(text2) == "" {
		return 0
	}
	docs := [2]map[string]int{counts(terms(text1)), counts(terms(text2))}

	total := make(map[string]int)
	for _, d := range docs {
		for term, c := range d {
			total[term] += c
		}
	}
	if len(total) == 0 {
		return 0
	}
	vocab := make([]string, 0, len(total))
	for term := range total {
		vocab = append(vocab, term)
	}
	slices.SortFunc(vocab, func(a, b string) int {
		if total[a] != total[b] {
			return total[b] - total[a]
		}
		return strings.Compare(a, b)
	})
	if len(vocab) > maxFeatures {
		vocab = vocab[:maxFeatures]
	}

	var vecs [2][]float64
	for i, d := range docs {
		v := make([]float64, len(vocab))
		for j, term := range vocab {
			tf := d[term]
			if tf == 0 {
				continue
			}
			df := 0
			for _, other := range docs {
				if other[term] > 0 {
					df++
				}
			}
			idf := math.Log(float64(1+len(docs))/float64(1+df)) + 1
			v[j] = float64(tf) * idf
		}
		vecs[i] = normalize(v)
	}

	var dot float64
	for j := range vocab {
		dot += vecs[0][j] * vecs[1][j]
	}
	return math.Max(0, math.Min(1, dot))
}

func counts(ts []string) map[string]int {
	out := make(map[string]int, len(ts))
	for _, t := range ts {
		out[t]++
	}
	return out
}

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	n := math.Sqrt(sum)
	for i := range v {
		v[i] /= n
	}
	return v
}
