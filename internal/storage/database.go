package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"weather-dashboard/internal/station"
)

// ErrNotFound is returned by Latest when the archive holds no snapshots.
var ErrNotFound = errors.New("no snapshots archived")

// Database archives every snapshot the dashboard makes current.
type Database struct {
	db *gorm.DB
}

// Open connects to the database described by databaseURL and migrates the
// schema. sqlite://path or a bare file path selects sqlite; postgres:// and
// mysql:// select the matching driver.
func Open(databaseURL string) (*Database, error) {
	dialector, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	d := &Database{db: db}
	if err := db.AutoMigrate(&SnapshotRecord{}); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return d, nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, fmt.Errorf("database url cannot be empty")
	}

	if path, ok := strings.CutPrefix(databaseURL, "sqlite://"); ok {
		return sqliteDialector(path)
	}
	if !strings.Contains(databaseURL, "://") {
		return sqliteDialector(databaseURL)
	}

	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "mysql":
		dsn, err := buildMySQLDSN(parsed)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(databaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", parsed.Scheme)
	}
}

func sqliteDialector(path string) (gorm.Dialector, error) {
	if path == "" {
		return nil, fmt.Errorf("database url missing sqlite path")
	}
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return sqlite.Open(path), nil
}

func buildMySQLDSN(parsed *url.URL) (string, error) {
	username := ""
	password := ""
	if parsed.User != nil {
		username = parsed.User.Username()
		if pwd, ok := parsed.User.Password(); ok {
			password = pwd
		}
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return "", fmt.Errorf("database url missing hostname for mysql connection")
	}

	port := parsed.Port()
	if port == "" {
		port = "3306"
	}

	databaseName := strings.TrimPrefix(parsed.Path, "/")
	if databaseName == "" {
		return "", fmt.Errorf("database url missing database name for mysql connection")
	}

	query := parsed.Query()
	if _, present := query["parseTime"]; !present {
		query.Set("parseTime", "true")
	}
	if _, present := query["loc"]; !present {
		query.Set("loc", "UTC")
	}

	auth := ""
	if username != "" {
		auth = username
		if password != "" {
			auth = fmt.Sprintf("%s:%s", auth, password)
		}
		auth += "@"
	} else if password != "" {
		return "", fmt.Errorf("database url provides password without username for mysql connection")
	}

	address := net.JoinHostPort(hostname, port)
	return fmt.Sprintf("%stcp(%s)/%s?%s", auth, address, databaseName, query.Encode()), nil
}

// Name identifies the archive in sink logs.
func (d *Database) Name() string {
	return "archive"
}

// Record stores snap. Recording the same snapshot twice is a no-op.
func (d *Database) Record(ctx context.Context, snap *station.Snapshot) error {
	if snap == nil {
		return nil
	}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "snapshot_id"}}, DoNothing: true}).
		Create(newSnapshotRecord(snap)).Error
}

// Latest returns the most recently generated snapshot.
func (d *Database) Latest(ctx context.Context) (*SnapshotRecord, error) {
	var record SnapshotRecord
	result := d.db.WithContext(ctx).Order("generated_at desc").First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &record, nil
}

// Recent returns up to limit snapshots, newest first.
func (d *Database) Recent(ctx context.Context, limit int) ([]SnapshotRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	var records []SnapshotRecord
	result := d.db.WithContext(ctx).Order("generated_at desc").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

// Range returns the snapshots generated in [from, to], newest first.
func (d *Database) Range(ctx context.Context, from, to time.Time) ([]SnapshotRecord, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s is before start %s", to, from)
	}

	var records []SnapshotRecord
	result := d.db.WithContext(ctx).
		Where("generated_at BETWEEN ? AND ?", from.UTC(), to.UTC()).
		Order("generated_at desc").
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

// Prune permanently deletes snapshots generated more than olderThan ago and
// reports how many rows went.
func (d *Database) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result := d.db.WithContext(ctx).Unscoped().
		Where("generated_at < ?", cutoff).
		Delete(&SnapshotRecord{})
	return result.RowsAffected, result.Error
}

// Close implements io.Closer.
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
