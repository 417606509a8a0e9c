package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction - Bir kullanıcının bir mülkten belirli bir fiyata aldığı sahiplik payı.
// Aynı kullanıcı, mülk ve tarih üçlüsü için tek kayıt olabilir.
type Transaction struct {
	ID              uint            `gorm:"primaryKey"`
	UserID          uint            `gorm:"not null;uniqueIndex:idx_transactions_user_property_date"`
	User            User            `gorm:"foreignKey:UserID"`
	PropertyID      uint            `gorm:"not null;uniqueIndex:idx_transactions_user_property_date;index"`
	Property        Property        `gorm:"foreignKey:PropertyID"`
	Percentage      decimal.Decimal `gorm:"type:decimal(5,2);not null"`  // Sahiplik yüzdesi (0.01 - 100.00)
	Price           decimal.Decimal `gorm:"type:decimal(15,2);not null"` // İşlem tutarı
	TransactionDate time.Time       `gorm:"not null;uniqueIndex:idx_transactions_user_property_date;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
