package pdf

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"parley/internal/models"
)

// TranscriptWriter renders a chat history as a PDF document.
type TranscriptWriter struct {
	// FontPath points to a TTF with the glyphs the chat uses. When empty the
	// core Helvetica font is used and text is mapped to cp1252.
	FontPath string
	fontName string
}

func NewTranscriptWriter(fontPath string) *TranscriptWriter {
	w := &TranscriptWriter{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		w.fontName = "ChatFont"
	}
	return w
}

type page struct {
	*gofpdf.Fpdf
	font string
	tr   func(string) string
}

func (w *TranscriptWriter) newPage() *page {
	doc := gofpdf.New("P", "mm", "A4", "")
	p := &page{Fpdf: doc, font: w.fontName, tr: func(s string) string { return s }}
	if w.FontPath != "" {
		doc.AddUTF8Font(w.fontName, "", w.FontPath)
		doc.AddUTF8Font(w.fontName, "B", w.FontPath)
	} else {
		p.tr = doc.UnicodeTranslatorFromDescriptor("")
	}
	return p
}

// Write renders the transcript to out.
func (w *TranscriptWriter) Write(out io.Writer, chat *models.Chat, msgs []*models.Message) error {
	p := w.newPage()
	p.SetTitle(p.tr(chatTitle(chat)), false)
	p.SetAuthor("parley", false)
	p.SetMargins(20, 20, 20)
	p.SetAutoPageBreak(true, 20)
	p.AliasNbPages("")
	p.SetFooterFunc(func() {
		p.SetY(-15)
		p.SetFont(p.font, "", 9)
		p.CellFormat(0, 10, fmt.Sprintf("%d/{nb}", p.PageNo()), "", 0, "C", false, 0, "")
	})
	p.AddPage()

	p.SetFont(p.font, "B", 16)
	p.CellFormat(0, 10, p.tr(chatTitle(chat)), "", 1, "L", false, 0, "")
	p.SetFont(p.font, "", 10)
	p.CellFormat(0, 6, p.tr("Members: "+memberNames(chat)), "", 1, "L", false, 0, "")
	p.CellFormat(0, 6, fmt.Sprintf("Exported %s, %d messages", time.Now().UTC().Format(time.RFC3339), len(msgs)), "", 1, "L", false, 0, "")
	p.hr()

	if len(msgs) == 0 {
		p.SetFont(p.font, "", 11)
		p.CellFormat(0, 8, "No messages yet.", "", 1, "L", false, 0, "")
	}
	for _, m := range msgs {
		p.SetFont(p.font, "B", 10)
		header := fmt.Sprintf("%s  %s", senderName(m), m.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		p.CellFormat(0, 6, p.tr(header), "", 1, "L", false, 0, "")
		p.SetFont(p.font, "", 11)
		p.MultiCell(0, 5.5, p.tr(m.Content), "", "L", false)
		p.Ln(2)
	}

	return p.Output(out)
}

func (p *page) hr() {
	y := p.GetY() + 1.5
	p.SetLineWidth(0.2)
	p.Line(20, y, 190, y)
	p.SetY(y + 3)
}

func chatTitle(c *models.Chat) string {
	if c.IsGroupChat {
		return c.ChatName
	}
	return "Direct chat: " + memberNames(c)
}

func memberNames(c *models.Chat) string {
	names := make([]string, 0, len(c.Users))
	for _, u := range c.Users {
		names = append(names, displayName(&u))
	}
	if len(names) == 0 {
		return strings.Join(c.UserIDs, ", ")
	}
	return strings.Join(names, ", ")
}

func senderName(m *models.Message) string {
	if m.Sender == nil {
		return m.SenderID
	}
	return displayName(m.Sender)
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}
