package textstats

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

const (
	// DefaultThemes is the number of themes kept per document.
	DefaultThemes = 5

	// DefaultTopWords is the number of word counts kept per document.
	DefaultTopWords = 20

	// DefaultPassageWords is the shortest shared passage, in words.
	DefaultPassageWords = 10

	// passageSpan is how many passage lengths above the minimum are tried.
	passageSpan = 5

	// maxPassages caps the shared passages reported.
	maxPassages = 20
)

var (
	themeWord      = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)
	vocabularyWord = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
)

var themeStopWords = toSet(
	"that", "this", "with", "from", "have", "been",
	"were", "they", "their", "what", "when", "where",
	"which", "while", "about", "would", "could", "should",
	"there", "these", "those", "being", "other", "some",
	"such", "into", "over", "after", "before", "between",
	"under", "through", "during", "each", "only", "than",
)

var frequencyStopWords = toSet(
	"the", "and", "for", "that", "this", "with", "from",
	"have", "been", "were", "they", "their", "what",
	"when", "where", "which", "while",
)

// Text is a named document body.
type Text struct {
	Name    string
	Content string
}

// WordCount is a word with its number of occurrences.
type WordCount struct {
	Word  string
	Count int
}

// Passage is a word sequence and the indexes of the texts containing it.
type Passage struct {
	Text  string
	Texts []int
}

// KeyThemes returns the limit most frequent words of four or more letters,
// skipping common function words. Ties keep first-occurrence order.
func KeyThemes(text string, limit int) []string {
	counts := mostCommon(themeWord.FindAllString(strings.ToLower(text), -1), themeStopWords, limit)
	themes := make([]string, len(counts))
	for i, c := range counts {
		themes[i] = c.Word
	}
	return themes
}

// TopWords returns the n most frequent words of four or more letters.
func TopWords(text string, n int) []WordCount {
	return mostCommon(themeWord.FindAllString(strings.ToLower(text), -1), frequencyStopWords, n)
}

// Similarity is the Jaccard index of the two vocabularies (words of three
// or more letters, case-folded). Either vocabulary being empty gives 0.
func Similarity(a, b string) float64 {
	wordsA := toSet(vocabularyWord.FindAllString(strings.ToLower(a), -1)...)
	wordsB := toSet(vocabularyWord.FindAllString(strings.ToLower(b), -1)...)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	shared := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(wordsA)+len(wordsB)-shared)
}

// CommonPassages finds word sequences of minWords to minWords+4 words
// that occur in more than one text. Sequences found in more texts come
// first; at most 20 are returned.
func CommonPassages(texts []string, minWords int) []Passage {
	if minWords <= 0 {
		minWords = DefaultPassageWords
	}

	seen := make(map[string]map[int]struct{})
	var order []string
	for i, text := range texts {
		words := strings.Fields(strings.ToLower(text))
		for n := minWords; n < minWords+passageSpan; n++ {
			for start := 0; start+n <= len(words); start++ {
				gram := strings.Join(words[start:start+n], " ")
				docs, ok := seen[gram]
				if !ok {
					docs = make(map[int]struct{})
					seen[gram] = docs
					order = append(order, gram)
				}
				docs[i] = struct{}{}
			}
		}
	}

	var common []Passage
	for _, gram := range order {
		docs := seen[gram]
		if len(docs) < 2 {
			continue
		}
		indexes := make([]int, 0, len(docs))
		for i := range docs {
			indexes = append(indexes, i)
		}
		sort.Ints(indexes)
		common = append(common, Passage{Text: gram, Texts: indexes})
	}

	sort.SliceStable(common, func(i, j int) bool {
		return len(common[i].Texts) > len(common[j].Texts)
	})
	if len(common) > maxPassages {
		common = common[:maxPassages]
	}
	return common
}

// Compare builds the full lexical comparison of texts.
// Names must be unique; similarities are rounded to three decimals.
func Compare(texts []Text) *domain.TextComparison {
	result := &domain.TextComparison{
		Documents:       make([]string, len(texts)),
		Similarities:    make(map[string]float64),
		Themes:          make(map[string][]string, len(texts)),
		SharedThemes:    []string{},
		CommonPassages:  []domain.CommonPassage{},
		WordFrequencies: make(map[string]map[string]int, len(texts)),
	}

	bodies := make([]string, len(texts))
	for i, t := range texts {
		result.Documents[i] = t.Name
		bodies[i] = t.Content
		result.Themes[t.Name] = KeyThemes(t.Content, DefaultThemes)

		freq := make(map[string]int)
		for _, wc := range TopWords(t.Content, DefaultTopWords) {
			freq[wc.Word] = wc.Count
		}
		result.WordFrequencies[t.Name] = freq
	}

	for i := range texts {
		for j := i + 1; j < len(texts); j++ {
			key := fmt.Sprintf("%s vs %s", texts[i].Name, texts[j].Name)
			result.Similarities[key] = round3(Similarity(texts[i].Content, texts[j].Content))
		}
	}

	if len(texts) > 0 {
		for _, theme := range result.Themes[texts[0].Name] {
			if inAll(theme, texts[1:], result.Themes) {
				result.SharedThemes = append(result.SharedThemes, theme)
			}
		}
	}

	for _, p := range CommonPassages(bodies, DefaultPassageWords) {
		names := make([]string, len(p.Texts))
		for k, idx := range p.Texts {
			names[k] = texts[idx].Name
		}
		result.CommonPassages = append(result.CommonPassages, domain.CommonPassage{
			Passage:   p.Text,
			Documents: names,
		})
	}

	return result
}

func inAll(theme string, texts []Text, themes map[string][]string) bool {
	for _, t := range texts {
		found := false
		for _, other := range themes[t.Name] {
			if other == theme {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// mostCommon counts words not in stop and returns the n most frequent.
func mostCommon(words []string, stop map[string]struct{}, n int) []WordCount {
	index := make(map[string]int)
	var counts []WordCount
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		if i, ok := index[w]; ok {
			counts[i].Count++
			continue
		}
		index[w] = len(counts)
		counts = append(counts, WordCount{Word: w, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	if counts == nil {
		counts = []WordCount{}
	}
	return counts
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
