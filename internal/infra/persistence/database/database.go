package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/probelab/probelab-app/pkg/config"
)

// NewDB opens the configured database and runs the schema migration.
// Supported drivers: sqlite (default), mysql, postgres.
func NewDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	dbType := cfg.GetString(config.KeyDBType)
	if dbType == "" {
		dbType = "sqlite"
	}

	var (
		driver string
		dsn    string
	)
	switch dbType {
	case "sqlite", "sqlite3":
		driver = "sqlite3"
		name := cfg.GetString(config.KeyDBName)
		if name == "" {
			name = "probelab.db"
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", name)
	case "mysql":
		driver = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.GetString(config.KeyDBUser),
			cfg.GetString(config.KeyDBPassword),
			cfg.GetString(config.KeyDBHost),
			cfg.GetInt(config.KeyDBPort),
			cfg.GetString(config.KeyDBName))
	case "postgres", "postgresql":
		driver = "postgres"
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.GetString(config.KeyDBHost),
			cfg.GetInt(config.KeyDBPort),
			cfg.GetString(config.KeyDBUser),
			cfg.GetString(config.KeyDBPassword),
			cfg.GetString(config.KeyDBName))
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", dbType, err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s database: %w", dbType, err)
	}

	if err := migrate(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

// migrate creates the tables and seeds the workflow reference data. The
// DDL sticks to the portable subset of the three supported engines, with
// the auto-increment primary key handled per driver.
func migrate(ctx context.Context, db *sql.DB, driver string) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	switch driver {
	case "mysql":
		pk = "BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT"
	case "postgres":
		pk = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS statuses (
			id %s,
			name VARCHAR(128) NOT NULL UNIQUE,
			color VARCHAR(32) NOT NULL DEFAULT ''
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS priorities (
			id %s,
			name VARCHAR(128) NOT NULL UNIQUE,
			level INTEGER NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS probes (
			id %s,
			name VARCHAR(255) NOT NULL UNIQUE,
			sample_mass DOUBLE PRECISION NOT NULL DEFAULT 0,
			volume_ml DOUBLE PRECISION NOT NULL DEFAULT 0,
			fe DOUBLE PRECISION NOT NULL DEFAULT 0,
			ni DOUBLE PRECISION NOT NULL DEFAULT 0,
			cu DOUBLE PRECISION NOT NULL DEFAULT 0,
			solid_mass_g DOUBLE PRECISION NOT NULL DEFAULT 0,
			density DOUBLE PRECISION NOT NULL DEFAULT 0,
			status_id INTEGER NOT NULL DEFAULT 1,
			priority INTEGER NOT NULL DEFAULT 1,
			tags TEXT NOT NULL DEFAULT '[]',
			method_number VARCHAR(64) NOT NULL DEFAULT '',
			repeat_number VARCHAR(64) NOT NULL DEFAULT '',
			is_series BOOLEAN NOT NULL DEFAULT FALSE,
			series_base VARCHAR(255) NOT NULL DEFAULT '',
			group_id INTEGER,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS snapshots (
			id %s,
			description TEXT NOT NULL DEFAULT '',
			author VARCHAR(128) NOT NULL DEFAULT '',
			change_type VARCHAR(64) NOT NULL DEFAULT '',
			hash VARCHAR(64) NOT NULL,
			filename VARCHAR(255) NOT NULL,
			probe_count INTEGER NOT NULL DEFAULT 0,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			group_id INTEGER NOT NULL DEFAULT 2,
			status INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		)`, pk),
		`CREATE TABLE IF NOT EXISTS settings (
			setting_key VARCHAR(128) PRIMARY KEY,
			setting_value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_probes_name ON probes (name)`,
		`CREATE INDEX IF NOT EXISTS idx_probes_group ON probes (group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots (created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return seed(ctx, db, driver)
}

// seed inserts the default workflow rows. The first status and priority
// must hold ID 1: new probes reference them.
func seed(ctx context.Context, db *sql.DB, driver string) error {
	statuses := []struct {
		name, color string
	}{
		{"Новая", "#909399"},
		{"В работе", "#E6A23C"},
		{"Завершена", "#67C23A"},
		{"Отклонена", "#F56C6C"},
	}
	for _, s := range statuses {
		stmt := insertIgnore(driver, "INSERT INTO statuses (name, color) VALUES (?, ?)")
		if _, err := db.ExecContext(ctx, Rebind(driver, stmt), s.name, s.color); err != nil {
			return fmt.Errorf("seeding status %q: %w", s.name, err)
		}
	}

	priorities := []struct {
		name  string
		level int
	}{
		{"Обычный", 1},
		{"Высокий", 2},
		{"Срочный", 3},
	}
	for _, p := range priorities {
		stmt := insertIgnore(driver, "INSERT INTO priorities (name, level) VALUES (?, ?)")
		if _, err := db.ExecContext(ctx, Rebind(driver, stmt), p.name, p.level); err != nil {
			return fmt.Errorf("seeding priority %q: %w", p.name, err)
		}
	}
	return nil
}

// insertIgnore appends each engine's conflict-tolerant clause to an insert.
func insertIgnore(driver, stmt string) string {
	if driver == "mysql" {
		return stmt + " ON DUPLICATE KEY UPDATE name = name"
	}
	return stmt + " ON CONFLICT DO NOTHING"
}

// InsertID runs an insert and returns the generated primary key. MySQL
// reports it through LastInsertId; postgres and sqlite use RETURNING.
func InsertID(ctx context.Context, db *sql.DB, driver, query string, args ...any) (uint, error) {
	if driver == "mysql" {
		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		return uint(id), nil
	}
	var id uint
	err := db.QueryRowContext(ctx, Rebind(driver, query+" RETURNING id"), args...).Scan(&id)
	return id, err
}

// Rebind rewrites ? placeholders to the engine's native form. Queries in
// this package and the repository implementations are written with ? and
// rebound at execution time.
func Rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
