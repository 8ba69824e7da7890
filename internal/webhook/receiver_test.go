package webhook

import (
	"context"
	"testing"
	"time"

	"haven-modsync/internal/storage"

	"go.uber.org/zap"
)

type fakeStore struct {
	byDiscordID map[string]*storage.Account
	actions     []storage.ModerationAction
	reports     []storage.Report
}

func newFakeStore(accounts ...*storage.Account) *fakeStore {
	store := &fakeStore{byDiscordID: make(map[string]*storage.Account)}
	for _, account := range accounts {
		store.byDiscordID[account.DiscordID] = account
	}
	return store
}

func (f *fakeStore) GetAccountByDiscordID(ctx context.Context, discordID string) (*storage.Account, error) {
	return f.byDiscordID[discordID], nil
}

func (f *fakeStore) SetBan(ctx context.Context, id, reason, bannedBy string, at time.Time) error {
	for _, account := range f.byDiscordID {
		if account.ID == id {
			account.Banned = true
			account.BanReason = reason
			account.BannedBy = bannedBy
			account.BannedAt = &at
		}
	}
	return nil
}

func (f *fakeStore) ClearBan(ctx context.Context, id string) error {
	for _, account := range f.byDiscordID {
		if account.ID == id {
			account.Banned = false
			account.BanReason = ""
			account.BannedBy = ""
			account.BannedAt = nil
		}
	}
	return nil
}

func (f *fakeStore) AddModerationAction(ctx context.Context, action storage.ModerationAction) (int64, error) {
	action.ID = int64(len(f.actions) + 1)
	f.actions = append(f.actions, action)
	return action.ID, nil
}

func (f *fakeStore) AddReport(ctx context.Context, report storage.Report) (int64, error) {
	report.ID = int64(len(f.reports) + 1)
	f.reports = append(f.reports, report)
	return report.ID, nil
}

func TestUnknownEventTypeAcknowledged(t *testing.T) {
	store := newFakeStore()
	receiver := NewReceiver(store, zap.NewNop())

	resp, err := receiver.Handle(context.Background(), Event{Type: "VOICE_STATE"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !resp.Success {
		t.Fatalf("unknown types must be acknowledged")
	}
	if len(store.actions) != 0 || len(store.reports) != 0 {
		t.Fatalf("unknown types must not write")
	}
}

func TestReportResolvesLinkedAccounts(t *testing.T) {
	store := newFakeStore(&storage.Account{ID: "u2", DiscordID: "D2"})
	receiver := NewReceiver(store, zap.NewNop())

	resp, err := receiver.Handle(context.Background(), Event{
		Type:              EventReport,
		ReporterDiscordID: "D1",
		ReportedDiscordID: "D2",
		Reason:            "harassment",
		Evidence:          "message link",
	})
	if err != nil || !resp.Success {
		t.Fatalf("handle: resp=%+v err=%v", resp, err)
	}
	if len(store.reports) != 1 {
		t.Fatalf("expected one report, got %d", len(store.reports))
	}
	report := store.reports[0]
	if report.ReporterAccount != "" {
		t.Fatalf("unlinked reporter must stay unresolved, got %q", report.ReporterAccount)
	}
	if report.ReportedAccount != "u2" || report.Status != "pending" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestModActionLogsMuteWithExpiry(t *testing.T) {
	store := newFakeStore(&storage.Account{ID: "u1", DiscordID: "D1"})
	receiver := NewReceiver(store, zap.NewNop())

	before := time.Now()
	_, err := receiver.Handle(context.Background(), Event{
		Type:               EventModAction,
		DiscordID:          "D1",
		ModeratorDiscordID: "M1",
		Action:             "mute",
		Reason:             "spam",
		DurationMinutes:    15,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.actions) != 1 {
		t.Fatalf("expected one log entry, got %d", len(store.actions))
	}
	entry := store.actions[0]
	if entry.TargetAccount != "u1" || entry.Platform != "discord" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.ExpiresAt == nil {
		t.Fatalf("mute entry missing expiry")
	}
	expected := before.Add(15 * time.Minute)
	if entry.ExpiresAt.Before(expected.Add(-time.Minute)) || entry.ExpiresAt.After(expected.Add(time.Minute)) {
		t.Fatalf("expiry %v not near %v", entry.ExpiresAt, expected)
	}
}

func TestModActionBanMirrorsState(t *testing.T) {
	account := &storage.Account{ID: "u1", DiscordID: "D1"}
	store := newFakeStore(account)
	receiver := NewReceiver(store, zap.NewNop())

	_, err := receiver.Handle(context.Background(), Event{
		Type:               EventModAction,
		DiscordID:          "D1",
		ModeratorDiscordID: "M1",
		Action:             "ban",
		Reason:             "raiding",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !account.Banned || account.BanReason != "raiding" {
		t.Fatalf("ban not mirrored: %+v", account)
	}
	if len(store.actions) != 1 {
		t.Fatalf("expected one log entry, got %d", len(store.actions))
	}
}

func TestUserJoinBannedAccountRequestsKick(t *testing.T) {
	account := &storage.Account{ID: "u1", DiscordID: "D1", Banned: true, BanReason: "spam"}
	store := newFakeStore(account)
	receiver := NewReceiver(store, zap.NewNop())

	resp, err := receiver.Handle(context.Background(), Event{Type: EventUserJoin, DiscordID: "D1"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !resp.ShouldKick || resp.Reason != "spam" {
		t.Fatalf("expected kick instruction, got %+v", resp)
	}
	if len(store.actions) != 0 {
		t.Fatalf("join handling must not write")
	}
}

func TestUserJoinUnknownUserAcknowledged(t *testing.T) {
	receiver := NewReceiver(newFakeStore(), zap.NewNop())

	resp, err := receiver.Handle(context.Background(), Event{Type: EventUserJoin, DiscordID: "D9"})
	if err != nil || !resp.Success || resp.ShouldKick {
		t.Fatalf("unexpected response %+v err=%v", resp, err)
	}
}

func TestBanAddMirrorsWithDefaultReason(t *testing.T) {
	account := &storage.Account{ID: "u1", DiscordID: "D1"}
	store := newFakeStore(account)
	receiver := NewReceiver(store, zap.NewNop())

	_, err := receiver.Handle(context.Background(), Event{Type: EventBanAdd, DiscordID: "D1"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !account.Banned || account.BanReason != "Banned from Discord server" {
		t.Fatalf("default reason not applied: %+v", account)
	}
	if len(store.actions) != 1 || store.actions[0].Action != "ban" {
		t.Fatalf("unexpected log entries %+v", store.actions)
	}
}

func TestBanAddRedeliveryIsNoOp(t *testing.T) {
	account := &storage.Account{ID: "u1", DiscordID: "D1"}
	store := newFakeStore(account)
	receiver := NewReceiver(store, zap.NewNop())

	event := Event{Type: EventBanAdd, DiscordID: "D1", Reason: "spam"}
	for i := 0; i < 2; i++ {
		if _, err := receiver.Handle(context.Background(), event); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	if len(store.actions) != 1 {
		t.Fatalf("redelivery must not double-log, got %d entries", len(store.actions))
	}
}

func TestBanAddUnlinkedUserIsNoOp(t *testing.T) {
	store := newFakeStore()
	receiver := NewReceiver(store, zap.NewNop())

	resp, err := receiver.Handle(context.Background(), Event{Type: EventBanAdd, DiscordID: "D9"})
	if err != nil || !resp.Success {
		t.Fatalf("unexpected response %+v err=%v", resp, err)
	}
	if len(store.actions) != 0 {
		t.Fatalf("unlinked ban must not write")
	}
}

func TestBanRemoveClearsMirroredBan(t *testing.T) {
	bannedAt := time.Now()
	account := &storage.Account{ID: "u1", DiscordID: "D1", Banned: true, BanReason: "spam", BannedAt: &bannedAt}
	store := newFakeStore(account)
	receiver := NewReceiver(store, zap.NewNop())

	_, err := receiver.Handle(context.Background(), Event{Type: EventBanRemove, DiscordID: "D1"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if account.Banned {
		t.Fatalf("ban not cleared: %+v", account)
	}
	if len(store.actions) != 1 || store.actions[0].Action != "unban" {
		t.Fatalf("unexpected log entries %+v", store.actions)
	}
}

func TestBanRemoveWhenNotBannedIsNoOp(t *testing.T) {
	account := &storage.Account{ID: "u1", DiscordID: "D1"}
	store := newFakeStore(account)
	receiver := NewReceiver(store, zap.NewNop())

	if _, err := receiver.Handle(context.Background(), Event{Type: EventBanRemove, DiscordID: "D1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.actions) != 0 {
		t.Fatalf("no-op unban must not write")
	}
}
