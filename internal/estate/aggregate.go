package estate

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ownershipTotals struct {
	Total     decimal.Decimal // mülkteki tüm işlemlerin yüzde toplamı
	UserTotal decimal.Decimal // verilen kullanıcının yüzde toplamı
}

// ownershipAggregate - mülkteki sahiplik toplamlarını tek sorguda hesaplar.
// excludeID > 0 ise o işlem toplama katılmaz (güncellemede kaydın kendisini
// iki kez saymamak için). Kilit ve yazma ile aynı transaction üzerinde
// çalıştırılmalıdır, aksi halde okuma ile yazma arasına başka bir yazar girebilir.
func ownershipAggregate(tx *gorm.DB, propertyID, userID, excludeID uint) (ownershipTotals, error) {
	var totals ownershipTotals
	err := tx.Raw(`
		SELECT
			COALESCE(SUM(percentage), 0) AS total,
			COALESCE(SUM(CASE WHEN user_id = ? THEN percentage ELSE 0 END), 0) AS user_total
		FROM transactions
		WHERE property_id = ? AND id <> ?
	`, userID, propertyID, excludeID).Scan(&totals).Error
	return totals, err
}
