package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	store, err := New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestIsIgnorableMigrationError(t *testing.T) {
	if isIgnorableMigrationError(nil) {
		t.Fatalf("nil error must not be ignorable")
	}
	if !isIgnorableMigrationError(errors.New(`relation "accounts" already exists`)) {
		t.Fatalf("duplicate-object error must be ignorable")
	}
	if isIgnorableMigrationError(errors.New("syntax error")) {
		t.Fatalf("syntax error must not be ignorable")
	}
}

func TestAccountRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.CreateAccount(ctx, Account{
		DisplayName: "Test User",
		Role:        "candidate",
		DiscordID:   "roundtrip-" + time.Now().Format("150405.000000"),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("create did not populate generated fields: %+v", created)
	}

	got, err := store.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got == nil || got.DisplayName != "Test User" || got.Role != "candidate" {
		t.Fatalf("unexpected account %+v", got)
	}

	byDiscord, err := store.GetAccountByDiscordID(ctx, created.DiscordID)
	if err != nil {
		t.Fatalf("get by discord id: %v", err)
	}
	if byDiscord == nil || byDiscord.ID != created.ID {
		t.Fatalf("discord lookup mismatch: %+v", byDiscord)
	}

	missing, err := store.GetAccount(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("get missing account: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing account, got %+v", missing)
	}
}

func TestBanLifecycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	account, err := store.CreateAccount(ctx, Account{DisplayName: "Ban Target", Role: "candidate"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	now := time.Now()
	if err := store.SetBan(ctx, account.ID, "spam", "mod-1", now); err != nil {
		t.Fatalf("set ban: %v", err)
	}
	banned, err := store.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("get banned account: %v", err)
	}
	if !banned.Banned || banned.BanReason != "spam" || banned.BannedBy != "mod-1" || banned.BannedAt == nil {
		t.Fatalf("ban state not persisted: %+v", banned)
	}

	if err := store.ClearBan(ctx, account.ID); err != nil {
		t.Fatalf("clear ban: %v", err)
	}
	cleared, err := store.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("get cleared account: %v", err)
	}
	if cleared.Banned || cleared.BanReason != "" || cleared.BannedAt != nil {
		t.Fatalf("ban state not cleared: %+v", cleared)
	}
}

func TestModerationActionLog(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	target, err := store.CreateAccount(ctx, Account{DisplayName: "Log Target", Role: "candidate"})
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	moderator, err := store.CreateAccount(ctx, Account{DisplayName: "Log Mod", Role: "admin"})
	if err != nil {
		t.Fatalf("create moderator: %v", err)
	}

	expires := time.Now().Add(30 * time.Minute)
	id, err := store.AddModerationAction(ctx, ModerationAction{
		TargetAccount:    target.ID,
		ModeratorAccount: moderator.ID,
		Action:           "mute",
		Reason:           "spam",
		Platform:         "website",
		ExpiresAt:        &expires,
		Active:           true,
	})
	if err != nil {
		t.Fatalf("add action: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected generated action id")
	}

	entries, err := store.ListModerationActions(ctx, target.ID)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Action != "mute" || entry.ModeratorName != "Log Mod" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.ExpiresAt == nil {
		t.Fatalf("expiry not persisted")
	}
}

func TestReportListing(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	reported, err := store.CreateAccount(ctx, Account{DisplayName: "Reported", Role: "candidate"})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	if _, err := store.AddReport(ctx, Report{
		ReporterDiscordID: "D-reporter",
		ReportedDiscordID: "D-reported",
		ReportedAccount:   reported.ID,
		Reason:            "harassment",
		Evidence:          "message link",
	}); err != nil {
		t.Fatalf("add report: %v", err)
	}

	reports, err := store.ListReports(ctx, "pending", 10)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	found := false
	for _, report := range reports {
		if report.ReportedAccount == reported.ID {
			found = true
			if report.Status != "pending" {
				t.Fatalf("unexpected status %q", report.Status)
			}
		}
	}
	if !found {
		t.Fatalf("inserted report not listed")
	}
}
