package storage

import "context"

func (s *Store) AddReport(ctx context.Context, report Report) (int64, error) {
	if report.Status == "" {
		report.Status = "pending"
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reports (
			reporter_discord_id, reported_discord_id, reporter_account, reported_account,
			reason, evidence, status
		) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
		RETURNING id
	`,
		report.ReporterDiscordID,
		report.ReportedDiscordID,
		report.ReporterAccount,
		report.ReportedAccount,
		report.Reason,
		report.Evidence,
		report.Status,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListReports returns reports newest first. status filters when non-empty.
func (s *Store) ListReports(ctx context.Context, status string, limit int) ([]Report, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reporter_discord_id, reported_discord_id,
			COALESCE(reporter_account, ''), COALESCE(reported_account, ''),
			reason, evidence, status, created_at
		FROM reports
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var report Report
		if err := rows.Scan(
			&report.ID,
			&report.ReporterDiscordID,
			&report.ReportedDiscordID,
			&report.ReporterAccount,
			&report.ReportedAccount,
			&report.Reason,
			&report.Evidence,
			&report.Status,
			&report.CreatedAt,
		); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
