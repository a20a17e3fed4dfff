package models

import "time"

// Network is one monitored location. Rows are seeded from config at startup
// and refreshed on every boot, so address edits in config win over the DB.
type Network struct {
	ID       string `gorm:"primaryKey;type:varchar(100)"`
	Name     string `gorm:"type:varchar(200);not null"`
	Email    string `gorm:"type:varchar(200)"`
	SiteType string `gorm:"type:varchar(50)"`

	AddressStreet    *string `gorm:"type:varchar(200)"`
	AddressCity      *string `gorm:"type:varchar(100)"`
	AddressState     *string `gorm:"type:varchar(50)"`
	AddressZip       *string `gorm:"type:varchar(20)"`
	AddressCountry   *string `gorm:"type:varchar(100)"`
	AddressFormatted *string `gorm:"type:text"`
	Latitude         *float64
	Longitude        *float64

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Network) TableName() string {
	return "networks"
}
