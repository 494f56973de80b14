package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"unity/internal/media"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	urlStyle   = lipgloss.NewStyle().Underline(true)
	descStyle  = lipgloss.NewStyle().Width(80).Foreground(lipgloss.Color("250"))
)

// Printer writes records for humans. Styling is applied only when the
// destination is a terminal.
type Printer struct {
	out    io.Writer
	styled bool
}

// NewPrinter returns a Printer for f, styled when f is a terminal.
func NewPrinter(f *os.File) *Printer {
	return &Printer{out: f, styled: term.IsTerminal(int(f.Fd()))}
}

// NewPlainPrinter returns an unstyled Printer writing to w.
func NewPlainPrinter(w io.Writer) *Printer {
	return &Printer{out: w}
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if !p.styled {
		return text
	}
	return s.Render(text)
}

// Catalog prints one line per search result.
func (p *Printer) Catalog(records []media.CatalogRecord) {
	if len(records) == 0 {
		fmt.Fprintln(p.out, "No results.")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(p.out, "%s  %s  %s\n",
			p.render(titleStyle, rec.Title),
			p.render(tagStyle, "["+rec.Type.String()+"]"),
			p.render(idStyle, rec.ID))
	}
}

// Meta prints an item header followed by its episode list.
func (p *Printer) Meta(m media.MetaRecord) {
	fmt.Fprintf(p.out, "%s  %s  %s\n",
		p.render(titleStyle, m.Name),
		p.render(tagStyle, "["+m.Type.String()+"]"),
		p.render(idStyle, m.ID))
	if m.Description != "" {
		fmt.Fprintln(p.out, p.render(descStyle, m.Description))
	}
	for _, ep := range m.Videos {
		fmt.Fprintf(p.out, "  %s  %s  %s\n",
			EpisodeLabel(ep),
			ep.Released.Format("2006-01-02"),
			p.render(idStyle, ep.ID))
	}
}

// Streams prints one block per playable stream.
func (p *Printer) Streams(streams []media.StreamDescriptor) {
	if len(streams) == 0 {
		fmt.Fprintln(p.out, "No streams.")
		return
	}
	for _, sd := range streams {
		fmt.Fprintf(p.out, "%s  %s\n  %s\n",
			p.render(titleStyle, sd.Name),
			p.render(tagStyle, sd.Title),
			p.render(urlStyle, sd.URL))
	}
}

// CatalogLabel formats a search result for the picker.
func CatalogLabel(rec media.CatalogRecord) string {
	return fmt.Sprintf("%s [%s]", rec.Title, rec.Type)
}

// EpisodeLabel formats an episode as "S01E02 Title".
func EpisodeLabel(ep media.EpisodeRecord) string {
	return fmt.Sprintf("S%02dE%02d %s", ep.Season, ep.Episode, ep.Title)
}
