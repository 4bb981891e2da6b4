package domain

// SourceFile is a file read from disk before text extraction.
type SourceFile struct {
	// Path is the file location.
	Path string

	// MIMEType is the detected content type (e.g. "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Extraction is the plain text recovered from a SourceFile.
type Extraction struct {
	// Title is the best-effort display name found in the file.
	Title string

	// Text is the extracted body.
	Text string

	// Format names the extractor that produced the text ("plaintext", "markdown", ...).
	Format string
}
