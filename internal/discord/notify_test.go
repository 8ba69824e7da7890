package discord

import (
	"testing"

	"haven-modsync/internal/config"

	"go.uber.org/zap"
)

func testColors() config.EmbedColors {
	return config.EmbedColors{Action: 0xF59E0B, Warning: 0xEF4444, Error: 0xF97316}
}

func TestParseWebhookURL(t *testing.T) {
	cases := []struct {
		raw   string
		id    string
		token string
		ok    bool
	}{
		{"https://discord.com/api/webhooks/123456/abc-token", "123456", "abc-token", true},
		{"https://discord.com/api/v10/webhooks/42/tok", "42", "tok", true},
		{"https://discord.com/api/webhooks/123456", "", "", false},
		{"https://discord.com/channels/1/2", "", "", false},
	}
	for _, tc := range cases {
		id, token, err := parseWebhookURL(tc.raw)
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.raw, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%s: expected error", tc.raw)
			}
			continue
		}
		if id != tc.id || token != tc.token {
			t.Fatalf("%s: got (%q, %q), want (%q, %q)", tc.raw, id, token, tc.id, tc.token)
		}
	}
}

func TestNotifierDisabledWithoutWebhookURL(t *testing.T) {
	notifier, err := NewNotifier(nil, "", testColors(), zap.NewNop())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	outcome := notifier.Post(Notice{Action: "ban", TargetDiscordID: "D1"})
	if outcome.Attempted {
		t.Fatalf("disabled notifier must not attempt delivery")
	}
	if outcome.Failed() {
		t.Fatalf("disabled notifier must not report failure")
	}
}

func TestNotifierRejectsMalformedURL(t *testing.T) {
	if _, err := NewNotifier(nil, "https://discord.com/channels/1/2", testColors(), zap.NewNop()); err == nil {
		t.Fatalf("expected error for non-webhook url")
	}
}

func TestNoticeEmbedColors(t *testing.T) {
	notifier, err := NewNotifier(nil, "", testColors(), zap.NewNop())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	embed := notifier.buildNoticeEmbed(Notice{Action: "ban", TargetDiscordID: "D1", Platform: "both"})
	if embed.Color != 0xEF4444 {
		t.Fatalf("ban must use warning color, got %#x", embed.Color)
	}
	embed = notifier.buildNoticeEmbed(Notice{Action: "warn", TargetDiscordID: "D1", Platform: "both"})
	if embed.Color != 0xF59E0B {
		t.Fatalf("warn must use action color, got %#x", embed.Color)
	}
}

func TestNoticeEmbedOptionalFields(t *testing.T) {
	notifier, err := NewNotifier(nil, "", testColors(), zap.NewNop())
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	embed := notifier.buildNoticeEmbed(Notice{
		Action:          "mute",
		TargetDiscordID: "D1",
		ModeratorName:   "Admin",
		Reason:          "spam",
		Platform:        "both",
		DurationMinutes: 30,
	})
	if len(embed.Fields) != 6 {
		t.Fatalf("expected 6 fields, got %d", len(embed.Fields))
	}

	embed = notifier.buildNoticeEmbed(Notice{Action: "kick", TargetDiscordID: "D1", Platform: "website"})
	if len(embed.Fields) != 3 {
		t.Fatalf("expected 3 fields without optional data, got %d", len(embed.Fields))
	}
}
