package stats

import (
	"context"
	"database/sql"
	"embed"

	"github.com/jaennil/guide_helper/backend/tilecache/internal/tile"
	"github.com/jaennil/guide_helper/backend/tilecache/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteRecorder struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteRecorder(path string, l logger.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// One writer keeps concurrent tile requests from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	r := &SQLiteRecorder{
		db:     db,
		logger: l,
	}

	err = r.runMigrations()
	if err != nil {
		db.Close()
		return nil, err
	}

	l.Info("sqlite stats initialized", "path", path)

	return r, nil
}

func (r *SQLiteRecorder) runMigrations() error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	err = goose.Up(r.db, "migrations")
	if err != nil {
		return err
	}

	return nil
}

var _ Recorder = (*SQLiteRecorder)(nil)

func (r *SQLiteRecorder) Record(ctx context.Context, l tile.Layer, o Outcome, bytes int64) error {
	d, err := delta(o, bytes)
	if err != nil {
		return err
	}

	query := `INSERT INTO tile_fetch_stats (layer, downloaded, cached, failed, bytes)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(layer) DO UPDATE SET
		downloaded = downloaded + excluded.downloaded,
		cached = cached + excluded.cached,
		failed = failed + excluded.failed,
		bytes = bytes + excluded.bytes`

	_, err = r.db.ExecContext(ctx, query, l.String(), d.Downloaded, d.Cached, d.Failed, d.Bytes)
	if err != nil {
		r.logger.Error("sqlite stats record failed", "layer", l, "outcome", o, "error", err)
		return err
	}

	return nil
}

func (r *SQLiteRecorder) Snapshot(ctx context.Context) (Snapshot, error) {
	query := `SELECT layer, downloaded, cached, failed, bytes FROM tile_fetch_stats`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s := emptySnapshot()
	for rows.Next() {
		var (
			layer string
			c     Counters
		)
		if err := rows.Scan(&layer, &c.Downloaded, &c.Cached, &c.Failed, &c.Bytes); err != nil {
			return nil, err
		}
		s[layer] = c
	}

	return s, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
