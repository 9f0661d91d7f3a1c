package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/deepscience/deepscience/internal/client"
	"github.com/deepscience/deepscience/internal/domain"
)

var (
	headerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	boldStyle         = lipgloss.NewStyle().Bold(true)
	italicStyle       = lipgloss.NewStyle().Italic(true)
	citationStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("14"))
	paperTitleStyle   = lipgloss.NewStyle().Bold(true)
	paperMetaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	highlightedStyle  = lipgloss.NewStyle().Border(lipgloss.ThickBorder(), false, false, false, true).BorderForeground(lipgloss.Color("14")).PaddingLeft(1)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	followUpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	suggestionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sectionTitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

var (
	h3Re     = regexp.MustCompile(`(?m)^### (.*)$`)
	h2Re     = regexp.MustCompile(`(?m)^## (.*)$`)
	h1Re     = regexp.MustCompile(`(?m)^# (.*)$`)
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*|__(.*?)__`)
	italicRe = regexp.MustCompile(`\*(.*?)\*|_(.*?)_`)
	listRe   = regexp.MustCompile(`(?m)^[*-] `)
	linkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// renderMarkdown applies a small subset of inline markdown to a text span.
// It is only ever called on non-citation segments: citations are matched
// first and never re-interpreted as markdown.
func renderMarkdown(text string) string {
	text = h3Re.ReplaceAllStringFunc(text, func(m string) string {
		return headerStyle.Render(strings.TrimPrefix(m, "### "))
	})
	text = h2Re.ReplaceAllStringFunc(text, func(m string) string {
		return headerStyle.Render(strings.TrimPrefix(m, "## "))
	})
	text = h1Re.ReplaceAllStringFunc(text, func(m string) string {
		return headerStyle.Render(strings.TrimPrefix(m, "# "))
	})
	text = linkRe.ReplaceAllString(text, "$1 ($2)")
	text = boldRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := strings.Trim(m, "*_")
		return boldStyle.Render(inner)
	})
	text = italicRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := strings.Trim(m, "*_")
		return italicStyle.Render(inner)
	})
	text = listRe.ReplaceAllString(text, "• ")
	return text
}

// renderAnswer renders the completed answer with resolved citations, or the
// raw accumulating text while the stream is still open.
func renderAnswer(state client.State) string {
	if !state.StreamComplete {
		return state.Answer
	}

	var b strings.Builder
	for _, seg := range client.ResolveCitations(state.Answer, state.Papers) {
		if seg.Citation {
			b.WriteString(citationStyle.Render(fmt.Sprintf("[%d]", seg.Ordinal)))
			continue
		}
		b.WriteString(renderMarkdown(seg.Text))
	}
	return b.String()
}

// renderPaper renders one paper card. Highlighted cards get a side border.
func renderPaper(ordinal int, paper domain.Paper, highlighted bool) string {
	var b strings.Builder
	b.WriteString(paperTitleStyle.Render(fmt.Sprintf("[%d] %s", ordinal, paper.Title)))
	b.WriteString("\n")

	meta := fmt.Sprintf("%s (%d)", strings.Join(paper.Authors, ", "), paper.Year)
	if paper.Journal != "" {
		meta += " · " + paper.Journal
	}
	b.WriteString(paperMetaStyle.Render(meta))
	if paper.URL != "" {
		b.WriteString("\n")
		b.WriteString(paperMetaStyle.Render(paper.URL))
	}

	card := b.String()
	if highlighted {
		return highlightedStyle.Render(card)
	}
	return card
}
