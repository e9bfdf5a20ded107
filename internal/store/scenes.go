package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docmock/internal/endpoint"
)

// EnsureDefaultScene creates the default scene when no scene exists and
// returns the oldest scene.
func (s *SQLiteStore) EnsureDefaultScene(ctx context.Context) (*Scene, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM scenes`).Scan(&n); err != nil {
		return nil, fmt.Errorf("count scenes: %w", err)
	}
	if n == 0 {
		sc := &Scene{Name: DefaultSceneName, Description: "Created automatically"}
		if err := s.CreateScene(ctx, sc); err != nil {
			return nil, err
		}
		return sc, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT id,name,description,keywords,created_at FROM scenes ORDER BY created_at, id LIMIT 1`)
	return scanScene(row)
}

func (s *SQLiteStore) CreateScene(ctx context.Context, sc *Scene) error {
	if strings.TrimSpace(sc.Name) == "" {
		return errors.New("scene name is required")
	}
	if sc.ID == "" {
		sc.ID = endpoint.NewID()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = s.now().UTC()
	}
	sc.Name = strings.TrimSpace(sc.Name)
	sc.Description = strings.TrimSpace(sc.Description)
	sc.Keywords = strings.TrimSpace(sc.Keywords)
	_, err := s.db.ExecContext(ctx, `INSERT INTO scenes(id,name,description,keywords,created_at) VALUES(?,?,?,?,?)`,
		sc.ID, sc.Name, sc.Description, sc.Keywords, millis(sc.CreatedAt))
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}
	return nil
}

// UpdateScene rewrites name, description and keywords. A rename is carried
// to the definitions of the scene.
func (s *SQLiteStore) UpdateScene(ctx context.Context, sc *Scene) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `UPDATE scenes SET name=?, description=?, keywords=? WHERE id=?`,
		strings.TrimSpace(sc.Name), strings.TrimSpace(sc.Description), strings.TrimSpace(sc.Keywords), sc.ID)
	if err != nil {
		return fmt.Errorf("update scene %s: %w", sc.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE endpoints SET scene_name=? WHERE scene_id=?`, strings.TrimSpace(sc.Name), sc.ID); err != nil {
		return fmt.Errorf("rename scene endpoints: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetScene(ctx context.Context, id string) (*Scene, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,description,keywords,created_at FROM scenes WHERE id=?`, id)
	sc, err := scanScene(row)
	if err != nil {
		return nil, fmt.Errorf("get scene %s: %w", id, err)
	}
	return sc, nil
}

// ListScenes returns scenes newest first.
func (s *SQLiteStore) ListScenes(ctx context.Context) ([]*Scene, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,name,description,keywords,created_at FROM scenes ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()
	out := []*Scene{}
	for rows.Next() {
		sc, err := scanScene(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// DeleteScene removes a scene. Its definitions stay, detached from any scene.
func (s *SQLiteStore) DeleteScene(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `DELETE FROM scenes WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete scene %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE endpoints SET scene_id='', scene_name='' WHERE scene_id=?`, id); err != nil {
		return fmt.Errorf("detach scene endpoints: %w", err)
	}
	return tx.Commit()
}

func scanScene(sc scanner) (*Scene, error) {
	var (
		s       Scene
		created int64
	)
	err := sc.Scan(&s.ID, &s.Name, &s.Description, &s.Keywords, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.CreatedAt = fromMillis(created)
	return &s, nil
}
