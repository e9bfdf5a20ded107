package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SaveUploadedFile inserts or replaces an upload record.
func (s *SQLiteStore) SaveUploadedFile(ctx context.Context, f *UploadedFile) error {
	var processed any
	if f.ProcessedAt != nil {
		processed = millis(*f.ProcessedAt)
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO uploaded_files(file_id,file_name,status,scene_id,scene_name,
		full_ai,generated_count,error_message,uploaded_at,processed_at) VALUES(?,?,?,?,?,?,?,?,?,?)`,
		f.FileID, f.FileName, string(f.Status), f.SceneID, f.SceneName, f.FullAI, f.GeneratedCount,
		f.ErrorMessage, millis(f.UploadedAt), processed)
	if err != nil {
		return fmt.Errorf("save uploaded file %s: %w", f.FileID, err)
	}
	return nil
}

const uploadedFileColumns = `file_id,file_name,status,scene_id,scene_name,full_ai,generated_count,error_message,uploaded_at,processed_at`

func (s *SQLiteStore) GetUploadedFile(ctx context.Context, fileID string) (*UploadedFile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadedFileColumns+` FROM uploaded_files WHERE file_id=?`, fileID)
	f, err := scanUploadedFile(row)
	if err != nil {
		return nil, fmt.Errorf("get uploaded file %s: %w", fileID, err)
	}
	return f, nil
}

// ListUploadedFiles returns uploads newest first.
func (s *SQLiteStore) ListUploadedFiles(ctx context.Context) ([]*UploadedFile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+uploadedFileColumns+` FROM uploaded_files ORDER BY uploaded_at DESC, file_id`)
	if err != nil {
		return nil, fmt.Errorf("list uploaded files: %w", err)
	}
	defer rows.Close()
	out := []*UploadedFile{}
	for rows.Next() {
		f, err := scanUploadedFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanUploadedFile(sc scanner) (*UploadedFile, error) {
	var (
		f         UploadedFile
		status    string
		uploaded  int64
		processed sql.NullInt64
	)
	err := sc.Scan(&f.FileID, &f.FileName, &status, &f.SceneID, &f.SceneName, &f.FullAI,
		&f.GeneratedCount, &f.ErrorMessage, &uploaded, &processed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	f.Status = UploadStatus(status)
	f.UploadedAt = fromMillis(uploaded)
	if processed.Valid {
		t := fromMillis(processed.Int64)
		f.ProcessedAt = &t
	}
	return &f, nil
}
