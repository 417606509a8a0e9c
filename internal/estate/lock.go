package estate

import (
	"sync"

	"realestate-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Mülk başına süreç içi kilit tablosu. Okuma-doğrulama-yazma dizisini mülk
// bazında serileştirir: aynı mülke yazan ikinci istek, ilkinin commit ya da
// rollback'i tamamlanana kadar bekler. Farklı mülkler birbirini bekletmez.
var propertyLocks = struct {
	mu   sync.Mutex
	byID map[uint]*sync.Mutex
}{byID: make(map[uint]*sync.Mutex)}

// lockPropertyMutex - verilen mülk için süreç içi kilidi alır ve döner.
// Çağıran, yazma yolu bittiğinde Unlock etmekle yükümlüdür.
func lockPropertyMutex(propertyID uint) *sync.Mutex {
	propertyLocks.mu.Lock()
	m, ok := propertyLocks.byID[propertyID]
	if !ok {
		m = &sync.Mutex{}
		propertyLocks.byID[propertyID] = m
	}
	propertyLocks.mu.Unlock()

	m.Lock()
	return m
}

// lockPropertyRow - mülk satırını enclosing transaction süresince kilitleyerek
// yükler (Postgres'te SELECT ... FOR UPDATE). Sqlite FOR UPDATE'i tanımadığı
// için orada satır kilidi atlanır; serileştirmeyi süreç içi kilit sağlar.
func lockPropertyRow(tx *gorm.DB, propertyID uint) (*models.Property, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var property models.Property
	if err := q.First(&property, "id = ?", propertyID).Error; err != nil {
		return nil, err
	}
	return &property, nil
}
