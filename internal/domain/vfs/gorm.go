package vfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormRepository stores entries in a SQL database through GORM.
type GormRepository struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a SQLite database at path and
// migrates the entry table. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*GormRepository, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	// SQLite permits one writer; a single connection also keeps ":memory:"
	// databases from splitting across connections.
	sqlDB.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	return NewGormRepository(db)
}

// NewGormRepository wraps an open database and migrates the entry table.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return &GormRepository{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *GormRepository) FindOne(ctx context.Context, owner, dir, name string) (Entry, error) {
	var e Entry
	err := r.db.WithContext(ctx).
		Where("owner = ? AND path = ? AND name = ?", owner, dir, name).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (r *GormRepository) Find(ctx context.Context, owner, dir string) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Where("owner = ? AND path = ?", owner, dir).
		Find(&entries).Error
	return entries, err
}

func (r *GormRepository) Insert(ctx context.Context, e Entry) error {
	err := r.db.WithContext(ctx).Create(&e).Error
	if isDuplicate(err) {
		return ErrAlreadyExists
	}
	return err
}

func (r *GormRepository) Update(ctx context.Context, e Entry) error {
	res := r.db.WithContext(ctx).Model(&Entry{}).
		Where("owner = ? AND path = ? AND name = ?", e.Owner, e.Path, e.Name).
		Updates(map[string]any{
			"content":     e.Content,
			"size":        e.Size,
			"permissions": e.Permissions,
			"updated_at":  e.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) Remove(ctx context.Context, owner, dir, name string) error {
	res := r.db.WithContext(ctx).
		Where("owner = ? AND path = ? AND name = ?", owner, dir, name).
		Delete(&Entry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveTree compares a fixed-length prefix instead of using LIKE, which
// SQLite matches case-insensitively and which would need wildcard escaping.
func (r *GormRepository) RemoveTree(ctx context.Context, owner, prefix string) (int64, error) {
	q := r.db.WithContext(ctx).Where("owner = ?", owner)
	if prefix != Root {
		child := prefix + "/"
		q = q.Where("(path = ? OR substr(path, 1, ?) = ?)", prefix, utf8.RuneCountInString(child), child)
	}
	res := q.Delete(&Entry{})
	return res.RowsAffected, res.Error
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
