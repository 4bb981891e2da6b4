package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

func extract(t *testing.T, path, page string) *domain.Extraction {
	t.Helper()
	got, err := New().Extract(context.Background(), &domain.SourceFile{Path: path, Content: []byte(page)})
	require.NoError(t, err)
	return got
}

func TestNormaliser_Registration(t *testing.T) {
	var n driven.Extractor = New()

	assert.ElementsMatch(t, []string{"text/html", "application/xhtml+xml"}, n.SupportedMIMETypes())
	assert.Greater(t, n.Priority(), 0)
}

func TestExtract_RejectsNilFile(t *testing.T) {
	got, err := New().Extract(context.Background(), nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, got)
}

func TestExtract_Page(t *testing.T) {
	got := extract(t, "/books/page.html",
		"<html><head><title>Walden</title></head><body><p>I went to the woods.</p></body></html>")

	assert.Equal(t, "Walden", got.Title)
	assert.Equal(t, "I went to the woods.", got.Text)
	assert.Equal(t, "html", got.Format)
}

func TestExtract_Title(t *testing.T) {
	cases := map[string]struct {
		path, page, want string
	}{
		"from title element":  {"a.html", "<title>Middlemarch</title>", "Middlemarch"},
		"entities decoded":    {"a.html", "<title>Pride &amp; Prejudice</title>", "Pride & Prejudice"},
		"inner space folded":  {"a.html", "<title>  The\n  Waves </title>", "The Waves"},
		"blank uses the path": {"/x/the-old_man.html", "<title> </title><p>sea</p>", "the old man"},
		"missing uses path":   {"/x/book_two.htm", "<p>sea</p>", "book two"},
		"empty file":          {"/x/empty.html", "", "empty"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, extract(t, tc.path, tc.page).Title)
		})
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"inline tags dissolve", "<p>a <em>very</em> <b>long</b> day</p>", "a very long day"},
		{"blocks get own lines", "<div>one</div><section>two</section>", "one\ntwo"},
		{"br breaks", "first<br>second<br/>third", "first\nsecond\nthird"},
		{"list items", "<ol><li>east</li><li>west</li></ol>", "east\nwest"},
		{"headings", "<h1>Book I</h1><h3>Part A</h3><p>text</p>", "Book I\nPart A\ntext"},
		{"entities", "<p>&lt;b&gt; &amp; &quot;q&quot;</p>", "<b> & \"q\""},
		{"link keeps text", `<a href="/x">the harbour</a>`, "the harbour"},
		{"image dropped", `<p>a <img src="x.png" alt="pic"> b</p>`, "a b"},
		{"table cells spaced", "<table><tr><th>Name</th><td>Ahab</td></tr></table>", "Name Ahab"},
		{"wrapped source lines fold", "<p>call me\n    Ishmael</p>", "call me Ishmael"},
		{"pre keeps lines", "<pre>line one\nline two</pre>", "line one\nline two"},
		{"comments dropped", "<p>x</p><!-- note --><p>y</p>", "x\ny"},
		{"script dropped", "<p>x</p><script>var a = 1;</script><p>y</p>", "x\ny"},
		{"style dropped", "<style>p { margin: 0 }</style><p>y</p>", "y"},
		{"noscript dropped", "<p>x</p><noscript>enable js</noscript>", "x"},
		{"head dropped", "<head><title>t</title><meta charset=utf-8></head><body>y</body>", "y"},
		{"embedded content dropped", "<template><p>a</p></template><iframe>b</iframe><svg><text>c</text></svg><p>d</p>", "d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripHTML(tc.in))
		})
	}
}

func TestExtract_ArticleLayout(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
  <head>
    <title>Essays</title>
    <style>body { font: serif; }</style>
  </head>
  <body>
    <nav><a href="/">Home</a></nav>
    <article>
      <h2>Of Solitude</h2>
      <p>It is a <strong>vain</strong> thing.</p>
      <blockquote>
        Quoted at length.
      </blockquote>
    </article>
    <script>track();</script>
    <footer><p>&copy; Montaigne</p></footer>
  </body>
</html>`

	got := extract(t, "essays.html", page)

	assert.Equal(t, "Essays", got.Title)
	assert.Equal(t, "Home\nOf Solitude\nIt is a vain thing.\nQuoted at length.\n© Montaigne", got.Text)
}

func TestExtract_ChapterHeadingsKeepTheirOwnLines(t *testing.T) {
	got := extract(t, "novel.html", "<h2>Chapter 1</h2><p>It was dark.</p><h2>Chapter 2</h2><p>It was light.</p>")

	assert.Equal(t, "Chapter 1\nIt was dark.\nChapter 2\nIt was light.", got.Text)
}
