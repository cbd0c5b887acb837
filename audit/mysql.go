package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// Registers the "mysql" driver with database/sql.
	_ "github.com/go-sql-driver/mysql"
)

// MySQLConfig describes the connection parameters for a persistent trail.
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MySQLStore persists audit entries in a MySQL table. Timestamps are stored
// as RFC3339Nano strings and payloads as JSON so signatures verify
// bit-for-bit after a reload.
type MySQLStore struct {
	db *sql.DB
}

const createTableStmt = `
CREATE TABLE IF NOT EXISTS audit_entries (
    id             VARCHAR(36)  NOT NULL PRIMARY KEY,
    run_id         VARCHAR(36)  NOT NULL,
    author         VARCHAR(64)  NOT NULL,
    event_type     VARCHAR(64)  NOT NULL,
    job_id         VARCHAR(64)  NOT NULL DEFAULT '',
    transaction_id VARCHAR(64)  NOT NULL DEFAULT '',
    ts             VARCHAR(35)  NOT NULL,
    data           JSON         NULL,
    signature      CHAR(64)     NOT NULL,
    seq            BIGINT       NOT NULL AUTO_INCREMENT,
    UNIQUE KEY idx_seq (seq),
    KEY idx_job (job_id),
    KEY idx_txn (transaction_id)
)`

// NewMySQLStore opens the database, applies pool settings and bootstraps the
// audit_entries table.
func NewMySQLStore(ctx context.Context, cfg MySQLConfig) (*MySQLStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mysql dsn must not be empty")
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(10)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(5)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	if _, err := db.ExecContext(ctx, createTableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit_entries table: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

// Append implements Store.
func (s *MySQLStore) Append(ctx context.Context, e Entry) error {
	var data []byte
	if e.Data != nil {
		var err error
		if data, err = json.Marshal(e.Data); err != nil {
			return fmt.Errorf("encode entry data: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, run_id, author, event_type, job_id, transaction_id, ts, data, signature)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RunID, e.Author, e.Type, e.JobID, e.TransactionID,
		e.Timestamp.UTC().Format(time.RFC3339Nano), data, e.Signature,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List implements Store.
func (s *MySQLStore) List(ctx context.Context) ([]Entry, error) {
	return s.query(ctx,
		`SELECT id, run_id, author, event_type, job_id, transaction_id, ts, data, signature
         FROM audit_entries ORDER BY seq`)
}

// ByJob implements Store.
func (s *MySQLStore) ByJob(ctx context.Context, jobID string) ([]Entry, error) {
	return s.query(ctx,
		`SELECT id, run_id, author, event_type, job_id, transaction_id, ts, data, signature
         FROM audit_entries WHERE job_id = ? ORDER BY seq`, jobID)
}

// ByTransaction implements Store.
func (s *MySQLStore) ByTransaction(ctx context.Context, txnID string) ([]Entry, error) {
	return s.query(ctx,
		`SELECT id, run_id, author, event_type, job_id, transaction_id, ts, data, signature
         FROM audit_entries WHERE transaction_id = ? ORDER BY seq`, txnID)
}

// Close releases the connection pool.
func (s *MySQLStore) Close() error { return s.db.Close() }

func (s *MySQLStore) query(ctx context.Context, stmt string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e    Entry
			ts   string
			data sql.RawBytes
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Author, &e.Type, &e.JobID, &e.TransactionID, &ts, &data, &e.Signature); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse entry timestamp %q: %w", ts, err)
		}
		if len(data) > 0 {
			var decoded map[string]any
			if err := json.Unmarshal(data, &decoded); err != nil {
				return nil, fmt.Errorf("decode entry data: %w", err)
			}
			e.Data = decoded
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return out, nil
}

var _ Store = (*MySQLStore)(nil)
