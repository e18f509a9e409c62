package notify

import "github.com/darshan-rambhia/poolwatch/internal/model"

func degradedMessage() model.Message {
	return model.Message{
		Title:       "tank: \\⚠️ DEGRADED",
		Description: "5 / 6 online (1 unavailable)",
		Color:       0xFFA500,
		Severity:    model.SeverityDegraded,
		Fields: []model.Field{
			{Name: "\\✅ mirror-0", Value: "2 / 2 online", Inline: true},
			{Name: "\\⚠️ Degraded", Value: "```sdb\nsdc```"},
		},
	}
}

func offlineMessage() model.Message {
	return model.Message{
		Title:       "backup: \\🛑 OFFLINE",
		Description: "0 / 2 online (2 unavailable)",
		Color:       0xFF0000,
		Severity:    model.SeverityOffline,
	}
}
