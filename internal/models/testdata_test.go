package models

func ptr(v float64) *float64 { return &v }

func sampleRecording() *ClickRecording {
	return &ClickRecording{
		Version:   DocumentVersion,
		StartTime: 1700000000000,
		Snapshots: []ClickSnapshot{
			{Kind: KindStart, Timestamp: 1700000000000, HTML: "<html></html>", URL: "https://example.com", ViewportWidth: 1920, ViewportHeight: 1080},
			{Kind: KindClick, Timestamp: 1700000001000, HTML: "<html></html>", URL: "https://example.com/a", ClickX: ptr(800), ClickY: ptr(450), ViewportWidth: 1920, ViewportHeight: 1080},
			{Kind: KindEnd, Timestamp: 1700000002000, HTML: "", URL: "https://example.com/a", ViewportWidth: 1920, ViewportHeight: 1080, Title: "Thanks"},
		},
	}
}
