// Package docx extracts the body text of Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/normalisers"
)

var _ driven.Extractor = (*Normaliser)(nil)

const (
	bodyPart = "word/document.xml"
	corePart = "docProps/core.xml"
)

type Normaliser struct{}

func New() *Normaliser { return &Normaliser{} }

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}
}

func (n *Normaliser) Priority() int { return 50 }

// Extract writes one line per paragraph. Cells of a table row share a line.
// The title is the dc:title property, else the file name.
func (n *Normaliser) Extract(_ context.Context, file *domain.SourceFile) (*domain.Extraction, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	zr, err := zip.NewReader(bytes.NewReader(file.Content), int64(len(file.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a docx archive", domain.ErrInvalidInput, file.Path)
	}

	body, err := readPart(zr, bodyPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, file.Path, err)
	}
	text, err := bodyText(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, file.Path, err)
	}

	title := ""
	if core, err := readPart(zr, corePart); err == nil {
		title = coreTitle(core)
	}
	if title == "" {
		title = normalisers.TitleFromPath(file.Path)
	}
	return &domain.Extraction{Title: title, Text: text, Format: "docx"}, nil
}

var errMissingPart = errors.New("missing part")

func readPart(zr *zip.Reader, name string) ([]byte, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w %s", errMissingPart, name)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// bodyText walks the WordprocessingML tokens. Only text runs, tabs and
// breaks produce output; the rest is layout.
func bodyText(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		out    []string
		line   strings.Builder
		inText bool
		inRow  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", bodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab", "tc":
				line.WriteByte(' ')
			case "br", "cr":
				out = flush(out, &line)
			case "tr":
				inRow = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				// Paragraphs inside a table run on, so each row stays one line.
				if inRow {
					line.WriteByte(' ')
				} else {
					out = flush(out, &line)
				}
			case "tr":
				inRow = false
				out = flush(out, &line)
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		}
	}
	out = flush(out, &line)
	return strings.Join(out, "\n"), nil
}

// flush appends the pending line with its spacing collapsed, if not blank.
func flush(out []string, line *strings.Builder) []string {
	text := strings.Join(strings.Fields(line.String()), " ")
	line.Reset()
	if text == "" {
		return out
	}
	return append(out, text)
}

func coreTitle(core []byte) string {
	var props struct {
		Title string `xml:"title"`
	}
	if xml.Unmarshal(core, &props) != nil {
		return ""
	}
	return strings.Join(strings.Fields(props.Title), " ")
}
