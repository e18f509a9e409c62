package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/darshan-rambhia/poolwatch/internal/model"
)

// NtfyProvider mirrors message batches to an ntfy topic as plain text.
type NtfyProvider struct {
	url    string
	topic  string
	client *http.Client
}

// NewNtfy creates a new ntfy notification provider.
func NewNtfy(url, topic string) *NtfyProvider {
	return &NtfyProvider{
		url:    strings.TrimRight(url, "/"),
		topic:  topic,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *NtfyProvider) Name() string { return "ntfy" }

func (n *NtfyProvider) Send(ctx context.Context, batch model.Batch) error {
	endpoint := fmt.Sprintf("%s/%s", n.url, n.topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(ntfyBody(batch)))
	if err != nil {
		return fmt.Errorf("ntfy: build request: %w", err)
	}

	severity := batch.Severity()
	req.Header.Set("Title", ntfyTitle(batch))
	req.Header.Set("Priority", severityToNtfyPriority(severity))
	req.Header.Set("Tags", ntfyTag(severity))

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Provider: n.Name(), Code: resp.StatusCode}
	}
	return nil
}

// markdown strips the Discord escapes and code fences from rendered text.
var markdown = strings.NewReplacer("\\", "", "```", "")

func ntfyTitle(batch model.Batch) string {
	if len(batch) == 1 {
		return markdown.Replace(batch[0].Title)
	}
	return fmt.Sprintf("%d pool status changes (%s)", len(batch), batch.Severity())
}

func ntfyBody(batch model.Batch) string {
	var b strings.Builder
	for i, m := range batch {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if len(batch) > 1 {
			b.WriteString(markdown.Replace(m.Title))
			b.WriteString("\n")
		}
		b.WriteString(markdown.Replace(m.Description))
		for _, f := range m.Fields {
			fmt.Fprintf(&b, "\n%s: %s", markdown.Replace(f.Name), strings.ReplaceAll(markdown.Replace(f.Value), "\n", ", "))
		}
	}
	return b.String()
}

func severityToNtfyPriority(s model.Severity) string {
	switch s {
	case model.SeverityOffline:
		return "5"
	case model.SeverityDegraded:
		return "4"
	default:
		return "2"
	}
}

func ntfyTag(s model.Severity) string {
	switch s {
	case model.SeverityOffline:
		return "rotating_light"
	case model.SeverityDegraded:
		return "warning"
	default:
		return "white_check_mark"
	}
}
