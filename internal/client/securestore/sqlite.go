package securestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/cropdoc/internal/client/migrations"
	"github.com/dmitrijs2005/cropdoc/internal/cryptox"
	"github.com/dmitrijs2005/cropdoc/internal/dbx"

	_ "modernc.org/sqlite"
)

const saltName = "kdf_salt"

// SQLiteStore is the native backend. Values are sealed with AES-GCM under a
// key derived from the device secret and a per-database salt; the key name
// is bound in as additional data.
type SQLiteStore struct {
	db  *sql.DB
	sq  sq.StatementBuilderType
	key []byte
}

// RunMigrations applies the embedded schema.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenSQLite opens (or creates) the store at dsn and unlocks it with secret.
func OpenSQLite(ctx context.Context, dsn string, secret []byte) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	s, err := NewSQLiteStore(ctx, db, secret)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore migrates db and derives the value key.
func NewSQLiteStore(ctx context.Context, db *sql.DB, secret []byte) (*SQLiteStore, error) {
	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate secure store: %w", err)
	}

	s := &SQLiteStore{db: db, sq: sq.StatementBuilder}

	var salt []byte
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		salt, err = s.loadOrCreateSalt(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("init secure store salt: %w", err)
	}

	s.key = cryptox.DeriveKey(secret, salt)
	return s, nil
}

func (s *SQLiteStore) loadOrCreateSalt(ctx context.Context, tx dbx.DBTX) ([]byte, error) {
	query, args, err := s.sq.Select("value").From("store_meta").Where(sq.Eq{"name": saltName}).ToSql()
	if err != nil {
		return nil, err
	}

	var salt []byte
	err = tx.QueryRowContext(ctx, query, args...).Scan(&salt)
	if err == nil {
		return salt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	salt, err = cryptox.RandomBytes(cryptox.SaltSize)
	if err != nil {
		return nil, err
	}

	query, args, err = s.sq.Insert("store_meta").Columns("name", "value").Values(saltName, salt).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	return salt, nil
}

func (s *SQLiteStore) Save(ctx context.Context, key, value string) error {
	sealed, err := cryptox.Seal(s.key, []byte(value), []byte(key))
	if err != nil {
		return wrap("save", key, err)
	}

	query, args, err := s.sq.Insert("secure_kv").
		Columns("k", "v").
		Values(key, sealed).
		Suffix("ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = CURRENT_TIMESTAMP").
		ToSql()
	if err != nil {
		return wrap("save", key, err)
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return wrap("save", key, err)
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := s.sq.Select("v").From("secure_kv").Where(sq.Eq{"k": key}).ToSql()
	if err != nil {
		return "", false, wrap("get", key, err)
	}

	var sealed []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("get", key, err)
	}

	plain, err := cryptox.Open(s.key, sealed, []byte(key))
	if err != nil {
		return "", false, wrap("get", key, err)
	}
	return string(plain), true, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	query, args, err := s.sq.Delete("secure_kv").Where(sq.Eq{"k": key}).ToSql()
	if err != nil {
		return wrap("delete", key, err)
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return wrap("delete", key, err)
}

func (s *SQLiteStore) Close() error {
	cryptox.Wipe(s.key)
	return s.db.Close()
}
