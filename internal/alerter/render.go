package alerter

import (
	"fmt"
	"strings"
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/model"
)

// Discord markdown would otherwise turn the leading emoji into shortcodes.
const (
	iconOffline  = "\\🛑"
	iconOnline   = "\\✅"
	iconDegraded = "\\⚠️"
)

// Embed colors per severity.
const (
	ColorOffline  = 0xFF0000
	ColorOnline   = 0x00FF00
	ColorDegraded = 0xFFA500
)

// Renderer turns summary nodes into messages.
type Renderer struct {
	extra string
	now   func() time.Time
}

// NewRenderer creates a renderer that appends extra, when non-empty, to
// every description.
func NewRenderer(extra string) *Renderer {
	return &Renderer{extra: extra, now: time.Now}
}

// Render builds the message for one node. A non-empty prefix names the
// node in the title.
func (r *Renderer) Render(prefix string, n *model.Node) model.Message {
	sev := n.Severity()

	title := icon(sev) + " " + sev.String()
	if prefix != "" {
		title = prefix + ": " + title
	}

	desc := summary(n)
	if r.extra != "" {
		desc += "\n" + r.extra
	}

	fields := make([]model.Field, 0, n.Vdevs.Len()+3)
	for name, child := range n.Vdevs.All() {
		fields = append(fields, model.Field{
			Name:   icon(child.Severity()) + " " + name,
			Value:  summary(child),
			Inline: true,
		})
	}
	if len(n.DegradedDrives) > 0 {
		fields = append(fields, model.Field{Name: iconDegraded + " Degraded", Value: codeBlock(n.DegradedDrives)})
	}
	if len(n.OfflineDrives) > 0 {
		fields = append(fields, model.Field{Name: iconOffline + " Offline", Value: codeBlock(n.OfflineDrives)})
	}
	fields = append(fields, model.Field{
		Name:  "Timestamp",
		Value: fmt.Sprintf("<t:%d:F>", r.now().Unix()),
	})

	return model.Message{
		Title:       title,
		Description: desc,
		Color:       color(sev),
		Fields:      fields,
		Severity:    sev,
	}
}

func summary(n *model.Node) string {
	s := fmt.Sprintf("%d / %d online", n.Online, n.Total)
	if n.Online != n.Total {
		s += fmt.Sprintf(" (%d unavailable)", n.Unavailable())
	}
	if n.HasSpace() {
		s += fmt.Sprintf(", %s / %s used", n.AllocSpace, n.TotalSpace)
	}
	return s
}

func codeBlock(lines []string) string {
	return "```" + strings.Join(lines, "\n") + "```"
}

func icon(s model.Severity) string {
	switch s {
	case model.SeverityOffline:
		return iconOffline
	case model.SeverityDegraded:
		return iconDegraded
	default:
		return iconOnline
	}
}

func color(s model.Severity) int {
	switch s {
	case model.SeverityOffline:
		return ColorOffline
	case model.SeverityDegraded:
		return ColorDegraded
	default:
		return ColorOnline
	}
}
