package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"nmsweep/internal/domain"
	"nmsweep/internal/services"
	"nmsweep/internal/state"
)

type uiStyles struct {
	headerStyle   lipgloss.Style
	mutedStyle    lipgloss.Style
	statusStyle   lipgloss.Style
	warnStyle     lipgloss.Style
	cursorStyle   lipgloss.Style
	selectedStyle lipgloss.Style
}

func stylesFor(model Model) uiStyles {
	if strings.ToLower(model.state.Prefs.Theme) == "light" {
		return uiStyles{
			headerStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")),
			mutedStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			statusStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			warnStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
			cursorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("90")).Bold(true),
			selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Bold(true),
		}
	}
	return uiStyles{
		headerStyle:   lipgloss.NewStyle().Bold(true),
		mutedStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		warnStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		cursorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	}
}

func (model Model) View() string {
	styles := stylesFor(model)
	var lines []string
	switch model.state.Phase {
	case state.PhaseAge:
		lines = renderAgePrompt(model, styles)
	case state.PhaseScanning:
		lines = renderScanning(model, styles)
	case state.PhaseSelect:
		lines = renderSelect(model, styles)
	case state.PhaseConfirm:
		lines = renderConfirm(model, styles)
	case state.PhaseDeleting:
		lines = renderDeleting(model, styles)
	case state.PhaseDone:
		lines = renderDone(model, styles)
	}
	return strings.Join(lines, "\n") + "\n"
}

func renderAgePrompt(model Model, styles uiStyles) []string {
	lines := []string{styles.headerStyle.Render(agePrompt), model.input.View()}
	if model.status != "" {
		lines = append(lines, styles.warnStyle.Render(model.status))
	}
	return lines
}

func renderScanning(model Model, styles uiStyles) []string {
	line := fmt.Sprintf("%s Indexing node_modules older than %s",
		model.spinner.View(), formatMonths(model.state.AgeMonths))
	lines := []string{styles.statusStyle.Render(line)}
	if model.state.CurrentPath != "" {
		progress := fmt.Sprintf("%d dirs  %s", model.state.Visited, model.state.CurrentPath)
		lines = append(lines, styles.mutedStyle.Render(trimStatus(progress, model.width)))
	}
	return lines
}

func renderSelect(model Model, styles uiStyles) []string {
	matches := model.state.Matches
	lines := []string{styles.headerStyle.Render(model.hint)}
	if model.hint == selectEmptyHint {
		lines[0] = styles.warnStyle.Render(model.hint)
	}

	start := clamp(model.viewTop, 0, maxInt(len(matches)-1, 0))
	end := start + listLimit
	if end > len(matches) {
		end = len(matches)
	}
	now := model.now()
	for index := start; index < end; index++ {
		match := matches[index]
		marker := "◯"
		if model.state.Selected[match.Path] {
			marker = styles.selectedStyle.Render("◉")
		}
		pointer := " "
		if index == model.state.Cursor {
			pointer = styles.cursorStyle.Render("❯")
		}
		age := styles.mutedStyle.Render(formatAge(match, now))
		lines = append(lines, fmt.Sprintf("%s %s %s  %s", pointer, marker, match.Path, age))
	}
	if len(matches) > listLimit {
		lines = append(lines, styles.mutedStyle.Render(fmt.Sprintf("(%d-%d of %d)", start+1, end, len(matches))))
	}

	selected := fmt.Sprintf("Selected: %d of %d", model.state.SelectionSummary(), len(matches))
	lines = append(lines, "", styles.mutedStyle.Render(padLine(selected, keysHelp(model), model.width)))
	return lines
}

func renderConfirm(model Model, styles uiStyles) []string {
	question := fmt.Sprintf("Confirm deleting %d directories? (y/n)", model.state.SelectionSummary())
	lines := []string{styles.warnStyle.Render(question)}
	if model.estimated {
		lines = append(lines, styles.mutedStyle.Render("About "+formatSize(model.estimate)+" will be freed."))
	}
	for _, path := range model.state.SelectedPaths() {
		lines = append(lines, styles.mutedStyle.Render("  "+path))
	}
	return lines
}

func renderDeleting(model Model, styles uiStyles) []string {
	lines := []string{styles.statusStyle.Render(fmt.Sprintf("%s Deleting node_modules", model.spinner.View()))}
	if model.status != "" {
		lines = append(lines, styles.mutedStyle.Render(trimStatus(model.status, model.width)))
	}
	return lines
}

func renderDone(model Model, styles uiStyles) []string {
	if model.status != "" {
		style := styles.statusStyle
		if model.err != nil {
			style = styles.warnStyle
		}
		return []string{style.Render(model.status)}
	}
	lines := []string{styles.statusStyle.Render(
		fmt.Sprintf("Deleted %d directories, freed %s.", len(model.state.Deleted), formatSize(model.state.Reclaimed)))}
	if len(model.state.Failed) > 0 {
		lines = append(lines, styles.warnStyle.Render(fmt.Sprintf("Could not delete %d:", len(model.state.Failed))))
		for _, path := range model.state.Failed {
			lines = append(lines, styles.mutedStyle.Render("  "+path))
		}
	}
	return lines
}

func keysHelp(model Model) string {
	parts := make([]string, 0, 6)
	for _, binding := range model.keys.ShortHelp() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, "  ")
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + "  " + right
	}
	return left + strings.Repeat(" ", space) + right
}

func formatSize(size int64) string {
	const unit = 1000
	if size < unit {
		return fmt.Sprintf("%dB", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit && exp < 5; n /= unit {
		div *= unit
		exp++
	}
	value := float64(size) / float64(div)
	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f%s", value, units[exp])
}

// formatAge renders how long ago a match was modified, in whole days below a
// month and in months above.
func formatAge(match domain.Match, now time.Time) string {
	age := match.Age(now)
	if age < services.MonthDuration {
		days := int(age / (24 * time.Hour))
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
	months := float64(age) / float64(services.MonthDuration)
	return fmt.Sprintf("%s ago", formatMonths(months))
}

func formatMonths(months float64) string {
	if months == 1 {
		return "1 month"
	}
	if months == float64(int64(months)) {
		return fmt.Sprintf("%d months", int64(months))
	}
	return fmt.Sprintf("%.1f months", months)
}

// trimStatus shortens message to fit width, cutting on rune boundaries.
func trimStatus(message string, width int) string {
	if width <= 0 {
		return message
	}
	max := width - 4
	runes := []rune(message)
	if max <= 0 || len(runes) <= max {
		return message
	}
	return string(runes[:max]) + "..."
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
