package document

import "strings"

// Document is the extracted text of one uploaded file.
type Document struct {
	Title string // From metadata or filename
	Pages []Page // Pages that yielded text, in page order
}

// Page is the text of a single page or block of the source document.
type Page struct {
	Number int    // 1-based position in the source (0 if N/A)
	Text   string // Extracted text, never empty
}

// Chunk is a bounded-word-count segment of the document text.
type Chunk struct {
	Index int    // Position in document order
	Text  string // Words joined by single spaces, original casing
}

// AddPage appends a page, skipping pages with no usable text.
func (d *Document) AddPage(number int, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.Pages = append(d.Pages, Page{Number: number, Text: text})
}

// Text concatenates page texts in page order, each followed by a newline.
func (d *Document) Text() string {
	var sb strings.Builder
	for _, p := range d.Pages {
		sb.WriteString(p.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// WordCount returns the number of whitespace-delimited words across all pages.
func (d *Document) WordCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(strings.Fields(p.Text))
	}
	return n
}
