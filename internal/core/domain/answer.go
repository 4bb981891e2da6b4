package domain

// NoMatchAnswer is returned when retrieval finds nothing to ground an answer on.
const NoMatchAnswer = "I couldn't find any relevant information in the selected documents for this question."

// Answer is a grounded response with the excerpts it was built from.
type Answer struct {
	// Text is the generated answer.
	Text string `json:"answer" yaml:"answer"`

	// Sources are the retrieved excerpts, most relevant first.
	Sources []SearchResult `json:"sources" yaml:"sources"`
}

// DocumentExcerpts groups the excerpts retrieved from one document.
type DocumentExcerpts struct {
	DocumentID   string         `json:"doc_id" yaml:"doc_id"`
	DocumentName string         `json:"doc_name" yaml:"doc_name"`
	Results      []SearchResult `json:"results" yaml:"results"`
}

// Comparison is a multi-document answer with per-document excerpts.
type Comparison struct {
	// Text is the generated comparison.
	Text string `json:"answer" yaml:"answer"`

	// Documents holds the excerpts of each compared document, in request order.
	Documents []DocumentExcerpts `json:"documents" yaml:"documents"`
}

// ImportResult reports an imported document.
type ImportResult struct {
	Document DocumentSummary `json:"document" yaml:"document"`
	Chunks   int             `json:"chunks" yaml:"chunks"`
	Replaced bool            `json:"replaced" yaml:"replaced"`
}

// TextComparison holds lexical statistics across documents.
type TextComparison struct {
	// Documents lists the compared document names.
	Documents []string `json:"documents" yaml:"documents"`

	// Similarities maps "A vs B" to the Jaccard similarity of their vocabularies.
	Similarities map[string]float64 `json:"pairwise_similarities" yaml:"pairwise_similarities"`

	// Themes maps each document to its most frequent content words.
	Themes map[string][]string `json:"themes" yaml:"themes"`

	// SharedThemes are the themes every document has.
	SharedThemes []string `json:"shared_themes" yaml:"shared_themes"`

	// CommonPassages are word sequences found in more than one document.
	CommonPassages []CommonPassage `json:"common_passages" yaml:"common_passages"`

	// WordFrequencies maps each document to its top word counts.
	WordFrequencies map[string]map[string]int `json:"word_frequencies" yaml:"word_frequencies"`
}

// CommonPassage is a word sequence shared by several documents.
type CommonPassage struct {
	Passage   string   `json:"passage" yaml:"passage"`
	Documents []string `json:"documents" yaml:"documents"`
}
