package estate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"realestate-backend/internal/audit"
	"realestate-backend/internal/database"
	"realestate-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateTransactionRequest struct {
	PropertyID      *uint            `json:"property"`
	Percentage      *decimal.Decimal `json:"percentage"`
	Price           *decimal.Decimal `json:"price"`
	TransactionDate *time.Time       `json:"transaction_date"`
	// "user" alanı bilinçli olarak yok: sahip her zaman token'daki kimlikten atanır
}

type UpdateTransactionRequest struct {
	PropertyID      *uint            `json:"property"`
	Percentage      *decimal.Decimal `json:"percentage"`
	Price           *decimal.Decimal `json:"price"`
	TransactionDate *time.Time       `json:"transaction_date"`
}

type TransactionResponse struct {
	ID              uint            `json:"id"`
	UserID          uint            `json:"user"`
	PropertyID      uint            `json:"property"`
	Percentage      decimal.Decimal `json:"percentage"`
	Price           decimal.Decimal `json:"price"`
	TransactionDate string          `json:"transaction_date"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

func toTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		UserID:          t.UserID,
		PropertyID:      t.PropertyID,
		Percentage:      t.Percentage,
		Price:           t.Price,
		TransactionDate: t.TransactionDate.Format("2006-01-02T15:04:05Z07:00"),
		CreatedAt:       t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:       t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// -------------------------
// Transaction Write Path
// -------------------------

// POST /api/transactions
//
// Yazma yolu: mülk kilidi -> sahiplik toplamları -> kabul kararı -> kayıt.
// Tamamı tek veritabanı transaction'ı içinde koşar; herhangi bir adım
// başarısız olursa hiçbir etki kalmaz.
func CreateTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		if rej := requiredCreateFields(&body); !rej.Empty() {
			return respondRejections(c, rej)
		}

		// Aynı mülke yazanlar burada sıraya girer; kilit, commit/rollback
		// tamamlanana kadar tutulur.
		mu := lockPropertyMutex(*body.PropertyID)
		defer mu.Unlock()

		var created models.Transaction
		var rej Rejections
		txErr := database.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
			property, lockErr := lockPropertyRow(tx, *body.PropertyID)
			if errors.Is(lockErr, gorm.ErrRecordNotFound) {
				rej = rejectionOf("property", "Mülk bulunamadı.")
				return errRejected
			}
			if lockErr != nil {
				return lockErr
			}

			totals, aggErr := ownershipAggregate(tx, property.ID, userID, 0)
			if aggErr != nil {
				return aggErr
			}

			rej = validateAdmission(admissionInput{
				Percentage:      *body.Percentage,
				Price:           *body.Price,
				TransactionDate: *body.TransactionDate,
				TotalOwned:      totals.Total,
				UserOwned:       totals.UserTotal,
				EstimatedValue:  property.EstimatedValue,
				Now:             time.Now(),
			})
			if !rej.Empty() {
				return errRejected
			}

			created = models.Transaction{
				UserID:          userID, // istemciden gelen sahip alanı asla kullanılmaz
				PropertyID:      property.ID,
				Percentage:      *body.Percentage,
				Price:           *body.Price,
				TransactionDate: *body.TransactionDate,
			}
			if createErr := tx.Create(&created).Error; createErr != nil {
				if errors.Is(createErr, gorm.ErrDuplicatedKey) {
					rej = rejectionOf("transaction_date", "Aynı kullanıcı, mülk ve tarih için zaten bir işlem var.")
					return errRejected
				}
				return createErr
			}
			return nil
		})
		if txErr != nil {
			if errors.Is(txErr, errRejected) {
				return respondRejections(c, rej)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem kaydedilemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "transaction",
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("İşlem eklendi: mülk #%d, %%%s - %s", created.PropertyID, created.Percentage.String(), created.Price.String()),
			Before:      nil,
			After:       toTransactionResponse(&created),
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(&created))
	}
}

// PUT /api/transactions/:id
//
// Güncelleme mülkü asla değiştiremez; bu, kilit alınmadan önce reddedilir.
// Toplamlar, kaydın kendisi hariç tutularak yeniden hesaplanır.
func UpdateTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var existing models.Transaction
		if err := database.DB.First(&existing, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İşlem bulunamadı")
		}

		userID, userName, role, err := getUserInfo(c)
		if err != nil {
			return err
		}
		if !canModify(userID, role, existing.UserID) {
			return fiber.NewError(fiber.StatusForbidden, "Bu işleme erişim yetkiniz yok")
		}

		var body UpdateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		// Mülk değişikliği ön kontrolü: kilitlemeden önce
		if body.PropertyID != nil && *body.PropertyID != existing.PropertyID {
			return respondRejections(c, rejectionOf("property", "Bir işlemin mülkü değiştirilemez."))
		}

		before := toTransactionResponse(&existing)

		// Mevcut kayıt + gelen patch birleştirilir
		merged := existing
		if body.Percentage != nil {
			merged.Percentage = *body.Percentage
		}
		if body.Price != nil {
			merged.Price = *body.Price
		}
		if body.TransactionDate != nil {
			merged.TransactionDate = *body.TransactionDate
		}

		mu := lockPropertyMutex(existing.PropertyID)
		defer mu.Unlock()

		var rej Rejections
		txErr := database.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
			property, lockErr := lockPropertyRow(tx, existing.PropertyID)
			if errors.Is(lockErr, gorm.ErrRecordNotFound) {
				rej = rejectionOf("property", "Mülk bulunamadı.")
				return errRejected
			}
			if lockErr != nil {
				return lockErr
			}

			// Sahiplik toplamları, güncellenen kaydın kendisi hariç.
			// Kullanıcı kovası işlemin sahibine göredir, çağırana göre değil:
			// admin başkasının işlemini güncelleyebilir.
			totals, aggErr := ownershipAggregate(tx, property.ID, existing.UserID, existing.ID)
			if aggErr != nil {
				return aggErr
			}

			rej = validateAdmission(admissionInput{
				Percentage:      merged.Percentage,
				Price:           merged.Price,
				TransactionDate: merged.TransactionDate,
				TotalOwned:      totals.Total,
				UserOwned:       totals.UserTotal,
				EstimatedValue:  property.EstimatedValue,
				Now:             time.Now(),
			})
			if !rej.Empty() {
				return errRejected
			}

			updateErr := tx.Model(&models.Transaction{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"percentage":       merged.Percentage,
					"price":            merged.Price,
					"transaction_date": merged.TransactionDate,
				}).Error
			if updateErr != nil {
				if errors.Is(updateErr, gorm.ErrDuplicatedKey) {
					rej = rejectionOf("transaction_date", "Aynı kullanıcı, mülk ve tarih için zaten bir işlem var.")
					return errRejected
				}
				return updateErr
			}
			return nil
		})
		if txErr != nil {
			if errors.Is(txErr, errRejected) {
				return respondRejections(c, rej)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem güncellenemedi")
		}

		if err := database.DB.First(&existing, "id = ?", existing.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem okunamadı")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "transaction",
			EntityID:    existing.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("İşlem güncellendi: mülk #%d, %%%s", existing.PropertyID, existing.Percentage.String()),
			Before:      before,
			After:       toTransactionResponse(&existing),
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.JSON(toTransactionResponse(&existing))
	}
}

// DELETE /api/transactions/:id
func DeleteTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var existing models.Transaction
		if err := database.DB.First(&existing, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İşlem bulunamadı")
		}

		userID, userName, role, err := getUserInfo(c)
		if err != nil {
			return err
		}
		if !canModify(userID, role, existing.UserID) {
			return fiber.NewError(fiber.StatusForbidden, "Bu işleme erişim yetkiniz yok")
		}

		before := toTransactionResponse(&existing)

		if err := database.DB.Delete(&existing).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem silinemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "transaction",
			EntityID:    existing.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("İşlem silindi: mülk #%d, %%%s", existing.PropertyID, existing.Percentage.String()),
			Before:      before,
			After:       nil,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Read Path
// -------------------------

// GET /api/transactions/:id
func GetTransactionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var transaction models.Transaction
		if err := database.DB.First(&transaction, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "İşlem bulunamadı")
		}
		return c.JSON(toTransactionResponse(&transaction))
	}
}

// İzin verilen sıralama alanları (query: ordering=price | -price | transaction_date | -transaction_date)
var transactionOrderings = map[string]string{
	"price":             "transactions.price asc",
	"-price":            "transactions.price desc",
	"transaction_date":  "transactions.transaction_date asc",
	"-transaction_date": "transactions.transaction_date desc",
}

// GET /api/transactions?user_id=&property_id=&district=&min_price=&max_price=&min_percentage=&max_percentage=&date_from=&date_to=&ordering=
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Transaction{}).
			Select("transactions.*").
			Joins("JOIN properties ON properties.id = transactions.property_id")

		if v := c.Query("user_id"); v != "" {
			uid, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "user_id geçersiz")
			}
			dbq = dbq.Where("transactions.user_id = ?", uid)
		}
		if v := c.Query("property_id"); v != "" {
			pid, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "property_id geçersiz")
			}
			dbq = dbq.Where("transactions.property_id = ?", pid)
		}
		if v := c.Query("district"); v != "" {
			dbq = dbq.Where("properties.district = ?", v)
		}

		decimalFilters := []struct {
			param  string
			clause string
		}{
			{"min_price", "transactions.price >= ?"},
			{"max_price", "transactions.price <= ?"},
			{"min_percentage", "transactions.percentage >= ?"},
			{"max_percentage", "transactions.percentage <= ?"},
		}
		for _, f := range decimalFilters {
			if v := c.Query(f.param); v != "" {
				d, err := decimal.NewFromString(v)
				if err != nil {
					return fiber.NewError(fiber.StatusBadRequest, f.param+" geçersiz")
				}
				dbq = dbq.Where(f.clause, d)
			}
		}

		if v := c.Query("date_from"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date_from geçersiz, RFC3339 olmalı")
			}
			dbq = dbq.Where("transactions.transaction_date >= ?", t)
		}
		if v := c.Query("date_to"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date_to geçersiz, RFC3339 olmalı")
			}
			dbq = dbq.Where("transactions.transaction_date <= ?", t)
		}

		// Varsayılan sıralama: fiyat, sonra işlem tarihi
		orderBy := "transactions.price asc, transactions.transaction_date asc"
		if v := c.Query("ordering"); v != "" {
			parts := strings.Split(v, ",")
			clauses := make([]string, 0, len(parts))
			for _, p := range parts {
				clause, ok := transactionOrderings[strings.TrimSpace(p)]
				if !ok {
					return fiber.NewError(fiber.StatusBadRequest, "ordering geçersiz")
				}
				clauses = append(clauses, clause)
			}
			orderBy = strings.Join(clauses, ", ")
		}

		var transactions []models.Transaction
		if err := dbq.Order(orderBy).Find(&transactions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlemler listelenemedi")
		}

		resp := make([]TransactionResponse, 0, len(transactions))
		for i := range transactions {
			resp = append(resp, toTransactionResponse(&transactions[i]))
		}
		return c.JSON(resp)
	}
}

func requiredCreateFields(body *CreateTransactionRequest) Rejections {
	rej := Rejections{}
	if body.PropertyID == nil {
		rej.Add("property", "Bu alan zorunlu.")
	}
	if body.Percentage == nil {
		rej.Add("percentage", "Bu alan zorunlu.")
	}
	if body.Price == nil {
		rej.Add("price", "Bu alan zorunlu.")
	}
	if body.TransactionDate == nil {
		rej.Add("transaction_date", "Bu alan zorunlu.")
	}
	return rej
}
