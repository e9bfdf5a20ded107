package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/docmock/internal/endpoint"
	"github.com/dgallion1/docmock/internal/jsontree"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single sqlite file. Timestamps are stored
// as unix milliseconds.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; sqlite serializes writes anyway.
	db.SetMaxOpenConns(1)
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS endpoints (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			method TEXT NOT NULL,
			api_path TEXT NOT NULL DEFAULT '',
			mock_url TEXT NOT NULL,
			request_example TEXT NOT NULL,
			response_example TEXT NOT NULL,
			error_response_example TEXT,
			required_fields TEXT NOT NULL,
			error_http_status INTEGER,
			response_delay_ms INTEGER,
			response_mode TEXT NOT NULL,
			response_script TEXT NOT NULL DEFAULT '',
			scene_id TEXT NOT NULL DEFAULT '',
			scene_name TEXT NOT NULL DEFAULT '',
			source_file_id TEXT NOT NULL DEFAULT '',
			source_file_name TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_endpoints_path ON endpoints(api_path, method);`,
		`CREATE INDEX IF NOT EXISTS idx_endpoints_file ON endpoints(source_file_id);`,
		`CREATE TABLE IF NOT EXISTS response_cache (
			id TEXT PRIMARY KEY,
			mock_id TEXT NOT NULL,
			request_signature TEXT NOT NULL,
			request_body TEXT NOT NULL,
			response_body TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE(mock_id, request_signature)
		);`,
		`CREATE TABLE IF NOT EXISTS op_logs (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			mock_id TEXT NOT NULL DEFAULT '',
			source_file_name TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_op_logs_type ON op_logs(type, created_at);`,
		`CREATE TABLE IF NOT EXISTS uploaded_files (
			file_id TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			status TEXT NOT NULL,
			scene_id TEXT NOT NULL DEFAULT '',
			scene_name TEXT NOT NULL DEFAULT '',
			full_ai INTEGER NOT NULL DEFAULT 0,
			generated_count INTEGER NOT NULL DEFAULT 0,
			error_message TEXT NOT NULL DEFAULT '',
			uploaded_at INTEGER NOT NULL,
			processed_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS scenes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const definitionColumns = `id,title,method,api_path,mock_url,request_example,response_example,
	error_response_example,required_fields,error_http_status,response_delay_ms,response_mode,
	response_script,scene_id,scene_name,source_file_id,source_file_name,created_at,updated_at`

// SaveDefinition inserts d, replacing any row with the same id.
func (s *SQLiteStore) SaveDefinition(ctx context.Context, d *endpoint.Definition) error {
	args, err := definitionArgs(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO endpoints(`+definitionColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		args...)
	if err != nil {
		return fmt.Errorf("save definition %s: %w", d.ID, err)
	}
	return nil
}

// UpdateDefinition rewrites an existing definition and drops its cached
// responses in the same transaction.
func (s *SQLiteStore) UpdateDefinition(ctx context.Context, d *endpoint.Definition) error {
	args, err := definitionArgs(d)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE endpoints SET title=?,method=?,api_path=?,mock_url=?,
		request_example=?,response_example=?,error_response_example=?,required_fields=?,
		error_http_status=?,response_delay_ms=?,response_mode=?,response_script=?,scene_id=?,
		scene_name=?,source_file_id=?,source_file_name=?,created_at=?,updated_at=? WHERE id=?`,
		append(args[1:], d.ID)...)
	if err != nil {
		return fmt.Errorf("update definition %s: %w", d.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM response_cache WHERE mock_id=?`, d.ID); err != nil {
		return fmt.Errorf("clear cache %s: %w", d.ID, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetDefinition(ctx context.Context, id string) (*endpoint.Definition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+definitionColumns+` FROM endpoints WHERE id=?`, id)
	d, err := scanDefinition(row)
	if err != nil {
		return nil, fmt.Errorf("get definition %s: %w", id, err)
	}
	return d, nil
}

// ListDefinitions returns every definition, newest first.
func (s *SQLiteStore) ListDefinitions(ctx context.Context) ([]*endpoint.Definition, error) {
	return s.queryDefinitions(ctx, `SELECT `+definitionColumns+` FROM endpoints ORDER BY created_at DESC, id`)
}

func (s *SQLiteStore) ListDefinitionsByScene(ctx context.Context, sceneID string) ([]*endpoint.Definition, error) {
	return s.queryDefinitions(ctx,
		`SELECT `+definitionColumns+` FROM endpoints WHERE scene_id=? ORDER BY created_at DESC, id`, sceneID)
}

// FindByPath resolves an api path in tiers: exact path and method, then the
// same ignoring case, then (looseMethod only) the path alone ignoring case.
// The most recently updated match wins within a tier.
func (s *SQLiteStore) FindByPath(ctx context.Context, apiPath, method string, looseMethod bool) (*endpoint.Definition, error) {
	if apiPath == "" {
		return nil, ErrNotFound
	}
	tiers := []struct {
		where string
		args  []any
	}{
		{`api_path=? AND method=?`, []any{apiPath, method}},
		{`lower(api_path)=lower(?) AND upper(method)=upper(?)`, []any{apiPath, method}},
	}
	if looseMethod {
		tiers = append(tiers, struct {
			where string
			args  []any
		}{`lower(api_path)=lower(?)`, []any{apiPath}})
	}
	for _, tier := range tiers {
		row := s.db.QueryRowContext(ctx,
			`SELECT `+definitionColumns+` FROM endpoints WHERE `+tier.where+` ORDER BY updated_at DESC LIMIT 1`,
			tier.args...)
		d, err := scanDefinition(row)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("find %s %s: %w", method, apiPath, err)
		}
	}
	return nil, ErrNotFound
}

// DeleteDefinition removes a definition with its cached responses and logs.
func (s *SQLiteStore) DeleteDefinition(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `DELETE FROM endpoints WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete definition %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := deleteDependents(ctx, tx, []string{id}); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteBySourceFile removes every definition generated from one upload.
func (s *SQLiteStore) DeleteBySourceFile(ctx context.Context, fileID string) (int, error) {
	return s.deleteWhere(ctx, `source_file_id=?`, fileID)
}

// DeleteBySourceFileName removes every definition generated from a file name,
// whichever upload produced it.
func (s *SQLiteStore) DeleteBySourceFileName(ctx context.Context, fileName string) (int, error) {
	return s.deleteWhere(ctx, `source_file_name=?`, fileName)
}

func (s *SQLiteStore) deleteWhere(ctx context.Context, where string, arg any) (int, error) {
	if arg == "" {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	n, err := deleteWhereTx(ctx, tx, where, arg)
	if err != nil || n == 0 {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// ReplaceSourceFile swaps every definition generated from fileName for defs
// in one transaction and returns how many old definitions were removed.
func (s *SQLiteStore) ReplaceSourceFile(ctx context.Context, fileName string, defs []*endpoint.Definition) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	removed := 0
	if fileName != "" {
		if removed, err = deleteWhereTx(ctx, tx, `source_file_name=?`, fileName); err != nil {
			return 0, err
		}
	}
	for _, d := range defs {
		args, err := definitionArgs(d)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO endpoints(`+definitionColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			args...); err != nil {
			return 0, fmt.Errorf("save definition %s: %w", d.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return removed, nil
}

func deleteWhereTx(ctx context.Context, tx *sql.Tx, where string, arg any) (int, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM endpoints WHERE `+where, arg)
	if err != nil {
		return 0, fmt.Errorf("select ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM endpoints WHERE `+where, arg); err != nil {
		return 0, fmt.Errorf("delete definitions: %w", err)
	}
	if err := deleteDependents(ctx, tx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func deleteDependents(ctx context.Context, tx *sql.Tx, ids []string) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM response_cache WHERE mock_id=?`, id); err != nil {
			return fmt.Errorf("delete cache %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM op_logs WHERE mock_id=?`, id); err != nil {
			return fmt.Errorf("delete logs %s: %w", id, err)
		}
	}
	return nil
}

func (s *SQLiteStore) queryDefinitions(ctx context.Context, query string, args ...any) ([]*endpoint.Definition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()
	out := []*endpoint.Definition{}
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func definitionArgs(d *endpoint.Definition) ([]any, error) {
	req, err := marshalText(d.RequestExample)
	if err != nil {
		return nil, fmt.Errorf("encode request example: %w", err)
	}
	resp, err := marshalText(d.ResponseExample)
	if err != nil {
		return nil, fmt.Errorf("encode response example: %w", err)
	}
	var errResp any
	if d.ErrorResponseExample != nil {
		text, err := marshalText(d.ErrorResponseExample)
		if err != nil {
			return nil, fmt.Errorf("encode error example: %w", err)
		}
		errResp = text
	}
	fields := d.RequiredFields
	if fields == nil {
		fields = []string{}
	}
	required, err := marshalText(fields)
	if err != nil {
		return nil, err
	}
	return []any{
		d.ID, d.Title, d.Method, d.APIPath, d.MockURL, req, resp, errResp, required,
		nullInt(d.ErrorHTTPStatus), nullInt(d.ResponseDelayMs), d.ResponseMode, d.ResponseScript,
		d.SceneID, d.SceneName, d.SourceFileID, d.SourceFileName,
		d.CreatedAt.UnixMilli(), d.UpdatedAt.UnixMilli(),
	}, nil
}

func scanDefinition(sc scanner) (*endpoint.Definition, error) {
	var (
		d                 endpoint.Definition
		req, resp, fields string
		errResp           sql.NullString
		errStatus, delay  sql.NullInt64
		created, updated  int64
	)
	err := sc.Scan(&d.ID, &d.Title, &d.Method, &d.APIPath, &d.MockURL, &req, &resp, &errResp, &fields,
		&errStatus, &delay, &d.ResponseMode, &d.ResponseScript, &d.SceneID, &d.SceneName,
		&d.SourceFileID, &d.SourceFileName, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if d.RequestExample, err = decodeObject(req); err != nil {
		return nil, fmt.Errorf("decode request example: %w", err)
	}
	if d.ResponseExample, err = decodeObject(resp); err != nil {
		return nil, fmt.Errorf("decode response example: %w", err)
	}
	if errResp.Valid && errResp.String != "" {
		if d.ErrorResponseExample, err = jsontree.DecodeString(errResp.String); err != nil {
			return nil, fmt.Errorf("decode error example: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(fields), &d.RequiredFields); err != nil {
		return nil, fmt.Errorf("decode required fields: %w", err)
	}
	d.ErrorHTTPStatus = intPtr(errStatus)
	d.ResponseDelayMs = intPtr(delay)
	d.CreatedAt = time.UnixMilli(created).UTC()
	d.UpdatedAt = time.UnixMilli(updated).UTC()
	return &d, nil
}

func marshalText(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeObject(text string) (jsontree.Object, error) {
	if strings.TrimSpace(text) == "" || text == "null" {
		return jsontree.Object{}, nil
	}
	v, err := jsontree.DecodeString(text)
	if err != nil {
		return nil, err
	}
	if o := jsontree.AsObject(v); o != nil {
		return o, nil
	}
	return jsontree.Object{"body": v}, nil
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
