package assembler

import "github.com/custodia-labs/marginalia/internal/core/ports/driven"

// DefaultTemplates holds the built-in prompt templates, keyed by prompt name.
var DefaultTemplates = map[string]string{
	driven.PromptRAGSystem:       ragSystem,
	driven.PromptRAG:             ragTemplate,
	driven.PromptComparison:      comparisonTemplate,
	driven.PromptChapterSystem:   chapterSystem,
	driven.PromptChapterSummary:  chapterSummaryTemplate,
	driven.PromptChapterEvents:   chapterEventsTemplate,
	driven.PromptTimelineMerge:   timelineMergeTemplate,
	driven.PromptChapterQuestion: chapterQuestionTemplate,
}

const ragSystem = `You are a text analysis assistant. Your role is to answer questions based ONLY on the provided document excerpts.

CRITICAL RULES:
1. ONLY use information from the provided text excerpts to answer questions
2. If the answer cannot be found in the provided texts, say "This information is not in the selected texts."
3. NEVER use external knowledge or make assumptions beyond what's in the texts
4. When quoting or referencing specific passages, indicate which source they come from
5. Be precise and cite specific parts of the text when possible

Your responses should be:
- Accurate to the source material
- Well-organized and clear
- Properly attributed to specific documents when relevant`

const ragTemplate = `Based on the following text excerpts from the user's documents, answer their question.

=== DOCUMENT EXCERPTS ===
{{context}}
=== END OF EXCERPTS ===

USER QUESTION: {{question}}

Remember: Only use information from the excerpts above. If the answer is not in the texts, say so.`

const comparisonTemplate = `Compare the following documents and answer the user's question about them.
Documents: {{documents}}

{{context}}

USER QUESTION: {{question}}

When answering:
1. Reference specific documents by name using [Document Name]
2. Highlight both similarities and differences when relevant
3. Quote specific passages to support your analysis
4. If information is only found in some documents, note which ones`

const chapterSystem = `You are a text analysis assistant. You have been given the COMPLETE text of a chapter from a book or document.

Your role is to provide thorough, detailed analysis based on the full chapter text provided. You have the complete chapter text, so you can reference any part of it.

Your responses should be:
- Accurate to the source material
- Well-organized and clear
- Detailed enough to capture the key content of the chapter`

const chapterSummaryTemplate = `Below is the complete text of {{chapter_label}} from "{{doc_name}}".

=== CHAPTER TEXT ===
{{chapter_text}}
=== END OF CHAPTER ===

Please provide a comprehensive summary of this chapter (~500 words) covering:
1. The main narrative arc or argument of the chapter
2. Key people, places, and events mentioned
3. Important quotes or passages
4. How this chapter connects to broader themes of the work

Write the summary in clear, flowing prose.`

const chapterEventsTemplate = `Below is the complete text of {{chapter_label}} from "{{doc_name}}".

=== CHAPTER TEXT ===
{{chapter_text}}
=== END OF CHAPTER ===

Extract all events, dates, and time references from this chapter. For each event, provide:
- **Date/Period**: The date or time period (use "undated" if no specific date is given but a sequence is implied)
- **Event**: Brief description of what happened
- **People**: Key people involved

Format as a numbered list. Be thorough - include all events mentioned, even briefly.`

const timelineMergeTemplate = `Below are events extracted from each chapter of "{{doc_name}}". Merge them into a single unified chronological timeline.

{{chapter_events}}

Create a unified chronological timeline:
1. Order all events by date/period (earliest first)
2. Remove duplicates (same event mentioned in multiple chapters)
3. Group events by era or time period where appropriate
4. Keep descriptions concise but informative

Format the timeline with clear date headings and bullet points for events.`

const chapterQuestionTemplate = `Below is the complete text of {{chapter_label}} from "{{doc_name}}".

=== CHAPTER TEXT ===
{{chapter_text}}
=== END OF CHAPTER ===

Question: {{question}}

Answer the question based on the chapter text above. Be thorough and cite specific passages where relevant.`
