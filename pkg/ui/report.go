package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ignonfollowers/pkg/models"
)

// ReportView is what the console report shows
type ReportView struct {
	NonFollowers   []models.UserRecord
	FollowingCount int
	FollowersCount int
	FansCount      int
	MutualCount    int
	ShowDetails    bool
}

// FormatUser renders one entry as "@username ✓🔒 (Full Name)"
func FormatUser(u models.UserRecord, details bool) string {
	var marks string
	if u.IsVerified {
		marks += "✓"
	}
	if u.IsPrivate {
		marks += "🔒"
	}

	line := "@" + u.Username
	if marks != "" {
		line += " " + marks
	}
	if details && u.FullName != "" {
		line += " (" + u.FullName + ")"
	}
	return line
}

// RenderReport renders the numbered non-follower list with a stats panel
func RenderReport(v ReportView) string {
	var b strings.Builder

	stats := lipgloss.JoinVertical(lipgloss.Left,
		statLine("Following", v.FollowingCount),
		statLine("Followers", v.FollowersCount),
		statLine("Mutual", v.MutualCount),
		statLine("Fans", v.FansCount),
		statLine("Non-followers", len(v.NonFollowers)),
	)
	b.WriteString(titleStyle.Render("NON-FOLLOWERS REPORT"))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(stats))
	b.WriteString("\n\n")

	if len(v.NonFollowers) == 0 {
		b.WriteString(successStyle.Render("Everyone you follow follows you back!"))
		b.WriteString("\n")
		return b.String()
	}

	for i, u := range v.NonFollowers {
		line := FormatUser(u, false)
		if v.ShowDetails && u.FullName != "" {
			line = usernameStyle.Render(line) + " " + fullNameStyle.Render("("+u.FullName+")")
		} else {
			line = usernameStyle.Render(line)
		}
		b.WriteString(indexStyle.Render(fmt.Sprintf("%d.", i+1)))
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// PrintReport writes RenderReport to the status output
func PrintReport(v ReportView) {
	fmt.Fprint(out, RenderReport(v))
}

func statLine(label string, value int) string {
	return statsLabelStyle.Render(fmt.Sprintf("%-14s", label)) + statsValueStyle.Render(fmt.Sprintf("%d", value))
}
