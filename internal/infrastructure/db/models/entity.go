package models

import "time"

// Entity is one imported record. Its field values live in Document as JSON.
type Entity struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	TypeName  string `gorm:"type:text;not null;index"`
	Document  []byte `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Entity) TableName() string {
	return "entities"
}
