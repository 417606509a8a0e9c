package estate

import (
	"errors"
	"fmt"
	"strings"

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

type CreatePropertyRequest struct {
	Title          string           `json:"title"`
	District       string           `json:"district"`
	EstimatedValue *decimal.Decimal `json:"estimated_value"`
}

type UpdatePropertyRequest struct {
	Title          *string          `json:"title"`
	District       *string          `json:"district"`
	EstimatedValue *decimal.Decimal `json:"estimated_value"`
}

type PropertyResponse struct {
	ID             uint            `json:"id"`
	UserID         uint            `json:"user"`
	Title          string          `json:"title"`
	District       string          `json:"district"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}

func toPropertyResponse(p *models.Property) PropertyResponse {
	return PropertyResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		Title:          p.Title,
		District:       string(p.District),
		EstimatedValue: p.EstimatedValue,
		CreatedAt:      p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func validatePropertyFields(title, district string, value *decimal.Decimal) Rejections {
	rej := Rejections{}
	if strings.TrimSpace(title) == "" {
		rej.Add("title", "Başlık boş olamaz.")
	}
	if !models.ValidDistrict(district) {
		rej.Add("district", "Geçersiz bölge.")
	}
	if value == nil {
		rej.Add("estimated_value", "Bu alan zorunlu.")
	} else if !value.IsPositive() {
		rej.Add("estimated_value", "Tahmini değer 0'dan büyük olmalı.")
	}
	return rej
}

// -------------------------
// Property CRUD
// -------------------------

// POST /api/properties
func CreatePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePropertyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		userID, userName, _, err := getUserInfo(c)
		if err != nil {
			return err
		}

		if rej := validatePropertyFields(body.Title, body.District, body.EstimatedValue); !rej.Empty() {
			return respondRejections(c, rej)
		}

		property := models.Property{
			UserID:         userID, // mülkü oluşturan sahibi olur
			Title:          strings.TrimSpace(body.Title),
			District:       models.District(body.District),
			EstimatedValue: *body.EstimatedValue,
		}

		if err := database.DB.Create(&property).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mülk kaydedilemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "property",
			EntityID:    property.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Mülk eklendi: %s (%s) - %s", property.Title, property.District, property.EstimatedValue.String()),
			Before:      nil,
			After:       toPropertyResponse(&property),
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toPropertyResponse(&property))
	}
}

// GET /api/properties
func ListPropertiesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Property{})
		if v := c.Query("district"); v != "" {
			dbq = dbq.Where("district = ?", v)
		}

		var properties []models.Property
		if err := dbq.Order("created_at desc").Find(&properties).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mülkler listelenemedi")
		}

		resp := make([]PropertyResponse, 0, len(properties))
		for i := range properties {
			resp = append(resp, toPropertyResponse(&properties[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/properties/:id
func GetPropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var property models.Property
		if err := database.DB.First(&property, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mülk bulunamadı")
		}
		return c.JSON(toPropertyResponse(&property))
	}
}

// PUT /api/properties/:id
//
// Tahmini değer ancak mevcut işlemlerin hiçbirini %50-%150 fiyat bandının
// dışına düşürmeyecekse değiştirilebilir.
func UpdatePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var property models.Property
		if err := database.DB.First(&property, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mülk bulunamadı")
		}

		userID, userName, role, err := getUserInfo(c)
		if err != nil {
			return err
		}
		if !canModify(userID, role, property.UserID) {
			return fiber.NewError(fiber.StatusForbidden, "Bu mülke erişim yetkiniz yok")
		}

		var body UpdatePropertyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		before := toPropertyResponse(&property)
		updated := false

		if body.Title != nil {
			title := strings.TrimSpace(*body.Title)
			if title == "" {
				return respondRejections(c, rejectionOf("title", "Başlık boş olamaz."))
			}
			property.Title = title
			updated = true
		}

		if body.District != nil {
			if !models.ValidDistrict(*body.District) {
				return respondRejections(c, rejectionOf("district", "Geçersiz bölge."))
			}
			property.District = models.District(*body.District)
			updated = true
		}

		if body.EstimatedValue != nil {
			if !body.EstimatedValue.IsPositive() {
				return respondRejections(c, rejectionOf("estimated_value", "Tahmini değer 0'dan büyük olmalı."))
			}
			// Mevcut işlemler yeni değerin fiyat bandına sığıyor mu?
			minPrice := body.EstimatedValue.Mul(priceBandLower)
			maxPrice := body.EstimatedValue.Mul(priceBandUpper)
			var invalidCount int64
			if err := database.DB.Model(&models.Transaction{}).
				Where("property_id = ?", property.ID).
				Where("price < ? OR price > ?", minPrice, maxPrice).
				Count(&invalidCount).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Mülk güncellenemedi")
			}
			if invalidCount > 0 {
				return respondRejections(c, rejectionOf("estimated_value",
					"Tahmini değer güncellenirse bir veya daha fazla işlem %50-%150 fiyat bandının dışına düşüyor."))
			}
			property.EstimatedValue = *body.EstimatedValue
			updated = true
		}

		if !updated {
			return c.JSON(toPropertyResponse(&property))
		}

		if err := database.DB.Save(&property).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mülk güncellenemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "property",
			EntityID:    property.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Mülk güncellendi: %s", property.Title),
			Before:      before,
			After:       toPropertyResponse(&property),
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.JSON(toPropertyResponse(&property))
	}
}

// DELETE /api/properties/:id
//
// Mülk silinince işlemleri de silinir; ikisi aynı transaction içinde.
func DeletePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var property models.Property
		if err := database.DB.First(&property, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Mülk bulunamadı")
		}

		userID, userName, role, err := getUserInfo(c)
		if err != nil {
			return err
		}
		if !canModify(userID, role, property.UserID) {
			return fiber.NewError(fiber.StatusForbidden, "Bu mülke erişim yetkiniz yok")
		}

		before := toPropertyResponse(&property)

		mu := lockPropertyMutex(property.ID)
		defer mu.Unlock()

		txErr := database.DB.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("property_id = ?", property.ID).Delete(&models.Transaction{}).Error; err != nil {
				return err
			}
			return tx.Delete(&property).Error
		})
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Mülk bulunamadı")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Mülk silinemedi")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  "property",
			EntityID:    property.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Mülk silindi: %s", property.Title),
			Before:      before,
			After:       nil,
		}); logErr != nil {
			fmt.Printf("Audit log yazılamadı: %v\n", logErr)
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
