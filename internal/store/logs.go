package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/docmock/internal/endpoint"
)

// AddLog appends an operation log entry.
func (s *SQLiteStore) AddLog(ctx context.Context, l OpLog) error {
	if l.ID == "" {
		l.ID = endpoint.NewID()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO op_logs(id,type,mock_id,source_file_name,message,created_at) VALUES(?,?,?,?,?,?)`,
		l.ID, l.Type, l.MockID, l.SourceFileName, l.Message, millis(l.CreatedAt))
	if err != nil {
		return fmt.Errorf("add log: %w", err)
	}
	return nil
}

// RecentLogs returns the newest entries first.
func (s *SQLiteStore) RecentLogs(ctx context.Context, limit int) ([]OpLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,type,mock_id,source_file_name,message,created_at
		FROM op_logs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent logs: %w", err)
	}
	defer rows.Close()
	out := []OpLog{}
	for rows.Next() {
		var (
			l       OpLog
			created int64
		)
		if err := rows.Scan(&l.ID, &l.Type, &l.MockID, &l.SourceFileName, &l.Message, &created); err != nil {
			return nil, err
		}
		l.CreatedAt = fromMillis(created)
		out = append(out, l)
	}
	return out, rows.Err()
}

// LogStats counts logs per type, overall and over the last 24 hours.
func (s *SQLiteStore) LogStats(ctx context.Context) (LogStats, error) {
	var st LogStats
	total, err := s.countByType(ctx, 0)
	if err != nil {
		return st, err
	}
	recent, err := s.countByType(ctx, millis(s.now().Add(-24*time.Hour)))
	if err != nil {
		return st, err
	}
	st.UploadMock = total[LogUploadMock]
	st.MockHit = total[LogMockHit]
	st.MockGen = total[LogMockGen]
	st.MockError = total[LogMockError]
	st.MockValidationFail = total[LogMockValidationFail]
	st.MockHit24h = recent[LogMockHit]
	st.MockGen24h = recent[LogMockGen]
	st.MockError24h = recent[LogMockError]
	st.MockValidationFail24h = recent[LogMockValidationFail]
	return st, nil
}

func (s *SQLiteStore) countByType(ctx context.Context, sinceMs int64) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT type, COUNT(1) FROM op_logs WHERE created_at >= ? GROUP BY type`, sinceMs)
	if err != nil {
		return nil, fmt.Errorf("count logs: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		out[typ] = n
	}
	return out, rows.Err()
}

func servingTypesClause() (string, []any) {
	marks := strings.TrimSuffix(strings.Repeat("?,", len(servingLogTypes)), ",")
	args := make([]any, len(servingLogTypes))
	for i, t := range servingLogTypes {
		args[i] = t
	}
	return "type IN (" + marks + ")", args
}

// EndpointCounts counts serving traffic per definition since a moment,
// busiest first. Deleted definitions show "-" as title.
func (s *SQLiteStore) EndpointCounts(ctx context.Context, since time.Time) ([]EndpointCount, error) {
	clause, args := servingTypesClause()
	rows, err := s.db.QueryContext(ctx, `SELECT l.mock_id, COALESCE(e.title, '-'), COUNT(1) AS cnt
		FROM op_logs l LEFT JOIN endpoints e ON e.id = l.mock_id
		WHERE l.`+clause+` AND l.created_at >= ? AND l.mock_id <> ''
		GROUP BY l.mock_id ORDER BY cnt DESC, l.mock_id`, append(args, millis(since))...)
	if err != nil {
		return nil, fmt.Errorf("endpoint counts: %w", err)
	}
	defer rows.Close()
	out := []EndpointCount{}
	for rows.Next() {
		var c EndpointCount
		if err := rows.Scan(&c.MockID, &c.Title, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SceneCounts counts serving traffic per scene since a moment, busiest first.
func (s *SQLiteStore) SceneCounts(ctx context.Context, since time.Time) ([]SceneCount, error) {
	clause, args := servingTypesClause()
	rows, err := s.db.QueryContext(ctx, `SELECT e.scene_id, e.scene_name, COUNT(1) AS cnt
		FROM op_logs l JOIN endpoints e ON e.id = l.mock_id
		WHERE l.`+clause+` AND l.created_at >= ? AND e.scene_id <> ''
		GROUP BY e.scene_id, e.scene_name ORDER BY cnt DESC, e.scene_id`, append(args, millis(since))...)
	if err != nil {
		return nil, fmt.Errorf("scene counts: %w", err)
	}
	defer rows.Close()
	out := []SceneCount{}
	for rows.Next() {
		var c SceneCount
		if err := rows.Scan(&c.SceneID, &c.SceneName, &c.Count); err != nil {
			return nil, err
		}
		if c.SceneName == "" {
			c.SceneName = "-"
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
