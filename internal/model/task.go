package model

import "time"

// Task represents a single to-do item.
type Task struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"index;not null"`
	Description string    `gorm:"not null"`
	IsDone      bool      `gorm:"default:false;index"`
	Priority    Priority  `gorm:"default:0"`
	CreatedAt   time.Time `gorm:"index"`
}
