package repository

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope narrows a list query.  Scopes are combined with AND.
type Scope = func(*gorm.DB) *gorm.DB

// Page selects a window of an id-descending result.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// ListQuery describes one list call: optional filters and optional paging.
// A nil Page returns every matching row.
type ListQuery struct {
	Scopes []Scope
	Page   *Page
}

// List runs q against T's table.  Soft-deleted rows of T are excluded by
// GORM; joined parents must be filtered by the scopes themselves.  The
// total is counted before paging and rows come back newest id first.
func List[T any](ctx context.Context, db *gorm.DB, q ListQuery, preloads ...string) ([]T, int64, error) {
	query := func() *gorm.DB {
		return db.WithContext(ctx).Model(new(T)).Scopes(q.Scopes...)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count")
	}

	tx := query().Order(clause.OrderByColumn{
		Column: clause.Column{Table: clause.CurrentTable, Name: "id"},
		Desc:   true,
	})
	if q.Page != nil {
		tx = tx.Offset(q.Page.Offset()).Limit(q.Page.Size)
	}
	for _, p := range preloads {
		tx = tx.Preload(p)
	}

	rows := make([]T, 0)
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "find")
	}
	return rows, total, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Contains matches column against a case-insensitive substring.  LIKE
// wildcards in the needle are matched literally.
func Contains(column, needle string) Scope {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(needle)) + "%"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("LOWER("+column+") LIKE ? ESCAPE '!'", pattern)
	}
}

// Equals matches column exactly.
func Equals(column string, v interface{}) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", v)
	}
}

// InRange keeps rows whose column lies in [from, to).  Either bound may be
// nil.
func InRange(column string, from, to *time.Time) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where(column+" >= ?", from.UTC())
		}
		if to != nil {
			db = db.Where(column+" < ?", to.UTC())
		}
		return db
	}
}

// Overlaps keeps rows whose [startCol, endCol] interval intersects
// [from, to).  A missing bound leaves that side open.
func Overlaps(startCol, endCol string, from, to *time.Time) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where(endCol+" >= ?", from.UTC())
		}
		if to != nil {
			db = db.Where(startCol+" < ?", to.UTC())
		}
		return db
	}
}

func joinActive(table, on string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN " + table + " ON " + on + " AND " + table + ".deleted_at IS NULL")
	}
}
