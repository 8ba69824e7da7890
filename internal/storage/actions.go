package storage

import (
	"context"
	"database/sql"
)

func (s *Store) AddModerationAction(ctx context.Context, action ModerationAction) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO moderation_actions (
			target_account, target_discord_id, moderator_account, moderator_discord_id,
			action, reason, platform, expires_at, active
		) VALUES (NULLIF($1, ''), NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9)
		RETURNING id
	`,
		action.TargetAccount,
		action.TargetDiscordID,
		action.ModeratorAccount,
		action.ModeratorDiscordID,
		action.Action,
		action.Reason,
		action.Platform,
		nullTime(action.ExpiresAt),
		action.Active,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListModerationActions returns the moderation history for one target account,
// newest first, with the moderator's display name when the moderator resolved
// to an internal account.
func (s *Store) ListModerationActions(ctx context.Context, targetAccount string) ([]ModerationEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, COALESCE(m.target_account, ''), COALESCE(m.target_discord_id, ''),
			COALESCE(m.moderator_account, ''), COALESCE(m.moderator_discord_id, ''),
			m.action, m.reason, m.platform, m.expires_at, m.active, m.created_at,
			COALESCE(a.display_name, '')
		FROM moderation_actions m
		LEFT JOIN accounts a ON a.id = m.moderator_account
		WHERE m.target_account = $1
		ORDER BY m.created_at DESC
	`, targetAccount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ModerationEntry
	for rows.Next() {
		var entry ModerationEntry
		var expires sql.NullTime
		if err := rows.Scan(
			&entry.ID,
			&entry.TargetAccount,
			&entry.TargetDiscordID,
			&entry.ModeratorAccount,
			&entry.ModeratorDiscordID,
			&entry.Action,
			&entry.Reason,
			&entry.Platform,
			&expires,
			&entry.Active,
			&entry.CreatedAt,
			&entry.ModeratorName,
		); err != nil {
			return nil, err
		}
		if expires.Valid {
			value := expires.Time
			entry.ExpiresAt = &value
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
