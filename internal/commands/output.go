package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cookscabinet/cabinet/internal/ports/inbound"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E8A33D"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(0, 1)
)

// printRecipe writes the full recipe card
func printRecipe(w io.Writer, r *inbound.RecipeDTO) {
	var b strings.Builder

	b.WriteString(titleStyle.Render(r.Title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(r.ID.String()))
	b.WriteString("\n")

	if r.Description != "" {
		b.WriteString("\n")
		b.WriteString(r.Description)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Ingredients"))
	b.WriteString("\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "  • %s\n", ing)
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Instructions"))
	b.WriteString("\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
	}

	b.WriteString("\n")
	if r.HasImage {
		b.WriteString(mutedStyle.Render("image " + r.ImageDigest))
	} else {
		b.WriteString(mutedStyle.Render("no image"))
	}

	fmt.Fprintln(w, boxStyle.Render(b.String()))
}

// printRecipeList writes one line per recipe plus a paging footer
func printRecipeList(w io.Writer, list *inbound.RecipeList) {
	if len(list.Recipes) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No recipes found"))
		return
	}

	for _, r := range list.Recipes {
		marker := " "
		if r.HasImage {
			marker = "▣"
		}
		fmt.Fprintf(w, "%s %s %s\n", mutedStyle.Render(r.ID.String()), marker, titleStyle.Render(r.Title))
	}

	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("page %d of %d, %d recipes",
		list.Page, list.TotalPages, list.Total)))
}

func printOK(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, okStyle.Render(fmt.Sprintf(format, args...)))
}
