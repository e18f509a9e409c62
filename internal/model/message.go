package model

// Field is one named line of a rendered message.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Message is a rendered notification, shaped as a Discord embed.
type Message struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Color       int      `json:"color"`
	Fields      []Field  `json:"fields"`
	Severity    Severity `json:"-"`
}

// Batch is the set of messages produced by one change-detection pass.
type Batch []Message

// Severity returns the most severe level among the batch's messages.
func (b Batch) Severity() Severity {
	worst := SeverityOnline
	for _, m := range b {
		worst = max(worst, m.Severity)
	}
	return worst
}
