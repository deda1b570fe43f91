package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ignatij/logreport/pkg/models"
)

const (
	Title       = "API Logs Report"
	Description = "This report provides a detailed overview of recent API requests, " +
		"including their status, response times, and any errors encountered. " +
		"It is intended to help monitor API performance, identify failures, " +
		"and provide actionable insights for debugging and optimization."
	Footer = "© FINKI – API Monitoring System"

	// TimestampLayout is the layout of the "Generated on" line.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Columns are the table header labels, in order.
var Columns = []string{"API Name", "Status", "Response Time", "Error", "Timestamp"}

// relative column widths, same order as Columns
var columnWeights = []float64{3, 1, 2, 4, 2}

type rgb struct{ r, g, b int }

var (
	colorTitle     = rgb{33, 150, 243}  // blue medium
	colorSubtle    = rgb{117, 117, 117} // grey darken-1
	colorParagraph = rgb{97, 97, 97}    // grey darken-2
	colorHeaderRow = rgb{238, 238, 238} // grey lighten-2
	colorRow       = rgb{255, 255, 255}
	colorRowAlt    = rgb{250, 250, 250} // grey lighten-5
	colorText      = rgb{0, 0, 0}
)

const (
	margin     = 25.0
	fontFamily = "Helvetica"
	baseSize   = 12.0
	lineHeight = 14.0
	cellPad    = 3.0
	footerH    = 12.0
)

// RenderError reports a failure inside the PDF engine.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render report: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock replaces time.Now as the source of the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		r.now = now
	}
}

// WithCompression toggles stream compression. Uncompressed output is handy
// when the text has to be inspected.
func WithCompression(on bool) Option {
	return func(r *Renderer) {
		r.compress = on
	}
}

// Renderer turns log records into an A4 PDF table.
type Renderer struct {
	now      func() time.Time
	compress bool
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{now: time.Now, compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws records in the given order. It does not sort.
func (r *Renderer) Render(records []models.LogRecord) (out []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, &RenderError{Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	generatedAt := r.now()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetTitle(Title, true)
	pdf.SetAuthor("API Monitoring System", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)

	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	d.layoutColumns()

	pdf.SetHeaderFunc(func() { d.header(generatedAt) })
	pdf.SetFooterFunc(d.footer)
	pdf.AddPage()
	d.linesPerPage = d.linesThatFit()

	for i, rec := range records {
		fill := colorRow
		if i%2 == 1 {
			fill = colorRowAlt
		}
		d.row(models.TablePolicy.Apply(rec), fill)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

type document struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	widths []float64
	// linesPerPage is how many text lines a row segment can hold on an
	// otherwise empty page, below the repeated header.
	linesPerPage int
}

func (d *document) layoutColumns() {
	pageW, _ := d.pdf.GetPageSize()
	usable := pageW - 2*margin
	var total float64
	for _, w := range columnWeights {
		total += w
	}
	d.widths = make([]float64, len(columnWeights))
	for i, w := range columnWeights {
		d.widths[i] = usable * w / total
	}
}

func (d *document) setText(style string, size float64, c rgb) {
	d.pdf.SetFont(fontFamily, style, size)
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

// header runs on every page: title block, then the table header row.
func (d *document) header(generatedAt time.Time) {
	pdf := d.pdf
	d.setText("B", 24, colorTitle)
	pdf.CellFormat(0, 28, d.tr(Title), "", 1, "L", false, 0, "")

	d.setText("", 10, colorSubtle)
	pdf.CellFormat(0, 14, "Generated on: "+generatedAt.Format(TimestampLayout), "", 1, "L", false, 0, "")

	pdf.Ln(10)
	d.setText("", 11, colorParagraph)
	pdf.MultiCell(0, 14, d.tr(Description), "", "L", false)
	pdf.Ln(20)

	d.setText("B", baseSize, colorText)
	cols := d.wrapColumns(Columns)
	d.segment(cols, 0, lineCount(cols), colorHeaderRow)
	d.setText("", baseSize, colorText)
}

func (d *document) footer() {
	d.pdf.SetY(-(margin + footerH))
	d.setText("", 9, colorSubtle)
	d.pdf.CellFormat(0, footerH, d.tr(Footer), "", 0, "C", false, 0, "")
}

// bottom is the lowest y a row may reach before the footer.
func (d *document) bottom() float64 {
	_, pageH := d.pdf.GetPageSize()
	return pageH - margin - footerH - 6
}

// linesThatFit is the number of text lines a segment starting at the current
// y can hold.
func (d *document) linesThatFit() int {
	return int(math.Floor((d.bottom() - d.pdf.GetY() - 2*cellPad) / lineHeight))
}

// row draws one record. A row that fits on a page is never split; it moves to
// the next page instead. A row taller than a whole page continues across as
// many pages as it needs, each part on its own background under the header.
func (d *document) row(row models.DisplayRow, fill rgb) {
	cols := d.wrapColumns([]string{row.APIName, row.Status, row.ResponseTime, row.Error, row.Timestamp})
	total := lineCount(cols)
	for start := 0; start < total; {
		remaining := total - start
		fit := d.linesThatFit()
		if fit < remaining && (fit < 1 || (start == 0 && remaining <= d.linesPerPage)) {
			d.pdf.AddPage()
			continue
		}
		end := start + min(fit, remaining)
		d.segment(cols, start, end, fill)
		start = end
	}
}

// wrapColumns wraps each cell text to its column width.
func (d *document) wrapColumns(texts []string) [][]string {
	cols := make([][]string, len(texts))
	for i, t := range texts {
		cols[i] = d.wrap(d.tr(t), d.widths[i]-2*cellPad)
	}
	return cols
}

func lineCount(cols [][]string) int {
	n := 1
	for _, lines := range cols {
		n = max(n, len(lines))
	}
	return n
}

// segment draws lines [from, to) of every column as one band of the table
// and moves the cursor below it.
func (d *document) segment(cols [][]string, from, to int, fill rgb) {
	pdf := d.pdf
	h := float64(to-from)*lineHeight + 2*cellPad
	x, y := margin, pdf.GetY()
	pdf.SetFillColor(fill.r, fill.g, fill.b)
	for i, lines := range cols {
		pdf.Rect(x, y, d.widths[i], h, "F")
		for j := from; j < to && j < len(lines); j++ {
			pdf.SetXY(x+cellPad, y+cellPad+float64(j-from)*lineHeight)
			pdf.CellFormat(d.widths[i]-2*cellPad, lineHeight, lines[j], "", 0, "L", false, 0, "")
		}
		x += d.widths[i]
	}
	pdf.SetXY(margin, y+h)
}

// wrap breaks already-translated text into lines no wider than w, splitting
// on spaces and hard-breaking words that do not fit on their own.
func (d *document) wrap(text string, w float64) []string {
	var lines []string
	var cur string
	for _, word := range strings.Fields(text) {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if d.pdf.GetStringWidth(candidate) <= w {
			cur = candidate
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		pieces := d.breakWord(word, w)
		lines = append(lines, pieces[:len(pieces)-1]...)
		cur = pieces[len(pieces)-1]
	}
	if cur != "" || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}

// breakWord cuts word into pieces no wider than w in a single pass. Every
// piece holds at least one byte, so a column narrower than one glyph still
// makes progress. Text is single-byte cp1252 here.
func (d *document) breakWord(word string, w float64) []string {
	var pieces []string
	start, width := 0, 0.0
	for i := 0; i < len(word); i++ {
		cw := d.pdf.GetStringWidth(word[i : i+1])
		if i > start && width+cw > w {
			pieces = append(pieces, word[start:i])
			start, width = i, 0
		}
		width += cw
	}
	return append(pieces, word[start:])
}
