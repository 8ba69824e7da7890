package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

func (s *Store) CreateAccount(ctx context.Context, account Account) (Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.Role == "" {
		account.Role = "candidate"
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, display_name, role, discord_id)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING created_at, updated_at
	`, account.ID, account.DisplayName, account.Role, account.DiscordID).
		Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

const accountColumns = `
	id, display_name, role, COALESCE(discord_id, ''), is_banned, ban_reason,
	banned_at, COALESCE(banned_by, ''), created_at, updated_at`

// GetAccount returns nil when no account matches.
func (s *Store) GetAccount(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetAccountByDiscordID returns nil when the discord id is not linked to any account.
func (s *Store) GetAccountByDiscordID(ctx context.Context, discordID string) (*Account, error) {
	if discordID == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT`+accountColumns+` FROM accounts WHERE discord_id = $1`, discordID)
	return scanAccount(row)
}

// SetBan flips the ban fields on an account. bannedBy may be empty when the
// acting moderator is unknown (e.g. a platform-side ban with no audit match).
func (s *Store) SetBan(ctx context.Context, id, reason, bannedBy string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET is_banned = TRUE, ban_reason = $2, banned_at = $3,
			banned_by = NULLIF($4, ''), updated_at = now()
		WHERE id = $1
	`, id, reason, at, bannedBy)
	return err
}

func (s *Store) ClearBan(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET is_banned = FALSE, ban_reason = '', banned_at = NULL,
			banned_by = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

func scanAccount(row *sql.Row) (*Account, error) {
	var account Account
	var bannedAt sql.NullTime
	err := row.Scan(
		&account.ID,
		&account.DisplayName,
		&account.Role,
		&account.DiscordID,
		&account.Banned,
		&account.BanReason,
		&bannedAt,
		&account.BannedBy,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if bannedAt.Valid {
		value := bannedAt.Time
		account.BannedAt = &value
	}
	return &account, nil
}
