package gridstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/cornergrid/internal/grid3d"
)

// ZoneMismatchReport is a stored zone mismatch result of one well against
// one snapshot.
type ZoneMismatchReport struct {
	ID         string              `json:"id"`
	SnapshotID string              `json:"snapshot_id"`
	WellName   string              `json:"well_name"`
	ZoneLog    string              `json:"zone_log"`
	Result     grid3d.ZoneMismatch `json:"result"`
	CreatedAt  time.Time           `json:"created_at"`
}

// SaveZoneMismatch records res for a stored snapshot.
func (s *Store) SaveZoneMismatch(ctx context.Context, snapshotID, wellName, zoneLog string, res grid3d.ZoneMismatch) (ZoneMismatchReport, error) {
	if _, err := s.GetSnapshot(ctx, snapshotID); err != nil {
		return ZoneMismatchReport{}, err
	}
	rep := ZoneMismatchReport{
		ID:         uuid.NewString(),
		SnapshotID: snapshotID,
		WellName:   wellName,
		ZoneLog:    zoneLog,
		Result:     res,
		CreatedAt:  s.clock.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO zone_mismatch_reports (
			report_id, snapshot_id, well_name, zone_log,
			match1, mcount1, tcount1, match2, mcount2, tcount2, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.SnapshotID, rep.WellName, rep.ZoneLog,
		res.Match1, res.MCount1, res.TCount1, res.Match2, res.MCount2, res.TCount2,
		rep.CreatedAt.UnixNano(),
	)
	if err != nil {
		return ZoneMismatchReport{}, fmt.Errorf("insert zone mismatch report: %w", err)
	}
	s.log.Diagf("stored zone mismatch of well %q against %s: %.1f%%", wellName, snapshotID, res.Match1)
	return rep, nil
}

// ZoneMismatchReports returns the reports of a snapshot ordered by well
// name, then age.
func (s *Store) ZoneMismatchReports(ctx context.Context, snapshotID string) ([]ZoneMismatchReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, snapshot_id, well_name, zone_log,
		       match1, mcount1, tcount1, match2, mcount2, tcount2, created_at
		FROM zone_mismatch_reports
		WHERE snapshot_id = ?
		ORDER BY well_name, created_at`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("list zone mismatch reports: %w", err)
	}
	defer rows.Close()

	var out []ZoneMismatchReport
	for rows.Next() {
		var (
			rep     ZoneMismatchReport
			created int64
		)
		r := &rep.Result
		if err := rows.Scan(&rep.ID, &rep.SnapshotID, &rep.WellName, &rep.ZoneLog,
			&r.Match1, &r.MCount1, &r.TCount1, &r.Match2, &r.MCount2, &r.TCount2, &created); err != nil {
			return nil, err
		}
		rep.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, rep)
	}
	return out, rows.Err()
}
