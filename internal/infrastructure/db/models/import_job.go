package models

import "time"

type ImportJob struct {
	Code        string    `gorm:"type:uuid;primaryKey"`
	ItemType    string    `gorm:"type:text;not null;index"`
	RowCount    int       `gorm:"not null;default:0"`
	Site        *string   `gorm:"type:text"`
	Process     string    `gorm:"type:text;not null"`
	Status      string    `gorm:"type:text;not null"`
	StartedAt   time.Time `gorm:"not null"`
	FinishedAt  *time.Time
	Description *string `gorm:"type:text"`
	LogFile     *string `gorm:"type:text"`
	Request     *string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
