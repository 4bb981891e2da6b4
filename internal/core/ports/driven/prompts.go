package driven

// PromptStore provides access to prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Templates use {{placeholder}} markers.
const (
	// PromptRAGSystem is the strict answer-only-from-excerpts system prompt.
	PromptRAGSystem = "rag_system"

	// PromptRAG wraps retrieved excerpts; expects {{context}} and {{question}}.
	PromptRAG = "rag"

	// PromptComparison wraps per-document excerpts; expects {{documents}},
	// {{context}} and {{question}}.
	PromptComparison = "comparison"

	// PromptChapterSystem is the system prompt for whole-chapter analysis.
	PromptChapterSystem = "chapter_system"

	// PromptChapterSummary expects {{chapter_label}}, {{doc_name}} and {{chapter_text}}.
	PromptChapterSummary = "chapter_summary"

	// PromptChapterEvents expects {{chapter_label}}, {{doc_name}} and {{chapter_text}}.
	PromptChapterEvents = "chapter_events"

	// PromptTimelineMerge expects {{doc_name}} and {{chapter_events}}.
	PromptTimelineMerge = "timeline_merge"

	// PromptChapterQuestion expects {{chapter_label}}, {{doc_name}},
	// {{chapter_text}} and {{question}}.
	PromptChapterQuestion = "chapter_question"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses its built-in templates.
	SetPromptStore(store PromptStore)
}
