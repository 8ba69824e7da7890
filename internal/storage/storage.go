package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

// Account is the internal user record. DiscordID is empty until the account
// is linked to a chat-platform identity.
type Account struct {
	ID          string
	DisplayName string
	Role        string
	DiscordID   string
	Banned      bool
	BanReason   string
	BannedAt    *time.Time
	BannedBy    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ModerationAction is one append-only log entry. Account and discord id
// references are empty when the corresponding side could not be resolved.
type ModerationAction struct {
	ID                 int64
	TargetAccount      string
	TargetDiscordID    string
	ModeratorAccount   string
	ModeratorDiscordID string
	Action             string
	Reason             string
	Platform           string
	ExpiresAt          *time.Time
	Active             bool
	CreatedAt          time.Time
}

// ModerationEntry is a log entry joined with the moderator's display name.
type ModerationEntry struct {
	ModerationAction
	ModeratorName string
}

type Report struct {
	ID                int64
	ReporterDiscordID string
	ReportedDiscordID string
	ReporterAccount   string
	ReportedAccount   string
	Reason            string
	Evidence          string
	Status            string
	CreatedAt         time.Time
}

func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *Store) Migrate() error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join("migrations", file))
		if err != nil {
			return err
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			if isIgnorableMigrationError(err) {
				continue
			}
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "already exists")
}

func nullTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return *value
}
