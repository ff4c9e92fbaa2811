package repository

import (
	"time"

	"gorm.io/gorm"

	"todolist/internal/model"
)

// Scope narrows a task query.
type Scope = func(*gorm.DB) *gorm.DB

// WhenIf applies scope only when cond holds; otherwise the query passes
// through unchanged.
func WhenIf(cond bool, scope Scope) Scope {
	if !cond {
		return func(db *gorm.DB) *gorm.DB { return db }
	}
	return scope
}

func IDEquals(id uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func NameEquals(name string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("name = ?", name)
	}
}

func PriorityEquals(p model.Priority) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("priority = ?", p)
	}
}

func Done(done bool) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_done = ?", done)
	}
}

// CreatedOn keeps tasks whose creation instant falls on day's calendar date in
// day's location.
func CreatedOn(day time.Time) Scope {
	start, end := DayBounds(day)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("created_at >= ? AND created_at < ?", start, end)
	}
}

// DayBounds returns the UTC half-open interval covering t's calendar date in
// t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end := time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	return start.UTC(), end.UTC()
}
