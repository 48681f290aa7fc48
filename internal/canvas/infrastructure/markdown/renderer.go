// Package markdown renders canvas documents as markdown bodies.
package markdown

import (
	"fmt"
	"strings"

	"github.com/tasklens/tasklens/internal/canvas/domain"
)

// Renderer writes the canvas body layout: checkbox lists per tier, a
// struck-through recently-completed block, and a statistics trailer.
// The body is a pure function of the document's sections and summary, so
// identical todo sets hash identically and skip the remote call.
type Renderer struct{}

// NewRenderer creates a markdown body renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderBody renders the full canvas body.
func (r *Renderer) RenderBody(doc domain.Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n", doc.Title)

	for _, section := range doc.Sections {
		fmt.Fprintf(&b, "\n## %s\n", section.Title)
		for _, item := range section.Items {
			if section.Completed {
				b.WriteString(completedLine(item))
			} else {
				b.WriteString(pendingLine(item))
			}
		}
	}

	summary := doc.Summary
	b.WriteString("\n## Statistics\n")
	fmt.Fprintf(&b, "- Total: %d\n", summary.Total)
	fmt.Fprintf(&b, "- Pending: %d\n", summary.Pending)
	fmt.Fprintf(&b, "- Completed: %d\n", summary.Completed)
	fmt.Fprintf(&b, "- Completion rate: %.1f%%\n", summary.CompletionRate)

	return b.String()
}

func pendingLine(item domain.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- [ ] %s", item.Title)
	if item.AssigneeName != "" {
		fmt.Fprintf(&b, " (@%s)", item.AssigneeName)
	}
	if item.DueAt != nil {
		fmt.Fprintf(&b, " | due %s", item.DueAt.UTC().Format("2006-01-02 15:04"))
	}
	if item.TaskType != "" {
		fmt.Fprintf(&b, " | %s", item.TaskType)
	}
	if item.Overdue {
		b.WriteString(" | **OVERDUE**")
	}
	b.WriteString("\n")
	return b.String()
}

func completedLine(item domain.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- [x] ~~%s~~", item.Title)
	if item.CompletedAt != nil {
		fmt.Fprintf(&b, " (%s)", item.CompletedAt.UTC().Format("2006-01-02"))
	}
	b.WriteString("\n")
	return b.String()
}
