package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property - Gayrimenkul
type Property struct {
	ID             uint            `gorm:"primaryKey"`
	UserID         uint            `gorm:"index;not null"` // Mülk sahibi
	User           User            `gorm:"foreignKey:UserID"`
	Title          string          `gorm:"size:256;not null"`
	District       District        `gorm:"type:varchar(20);not null;index"`
	EstimatedValue decimal.Decimal `gorm:"type:decimal(15,2);not null"` // Tahmini değer
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// District - Bölge (Kıbrıs)
type District string

const (
	DistrictFamagusta District = "Famagusta"
	DistrictKyrenia   District = "Kyrenia"
	DistrictLarnaca   District = "Larnaca"
	DistrictLimassol  District = "Limassol"
	DistrictNicosia   District = "Nicosia"
	DistrictPaphos    District = "Paphos"
)

var Districts = []District{
	DistrictFamagusta,
	DistrictKyrenia,
	DistrictLarnaca,
	DistrictLimassol,
	DistrictNicosia,
	DistrictPaphos,
}

func ValidDistrict(d string) bool {
	for _, v := range Districts {
		if string(v) == d {
			return true
		}
	}
	return false
}
