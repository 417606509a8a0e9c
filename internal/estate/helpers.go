package estate

import (
	"errors"

	"realestate-backend/internal/auth"
	"realestate-backend/internal/database"
	"realestate-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errRejected - yazma yolu içinde doğrulama reddini transaction rollback'ine
// çeviren sentinel. Handler, bu hatayı görünce biriken Rejections'ı döner.
var errRejected = errors.New("admission rejected")

// getUserInfo - token'daki kimliği ve audit log için kullanıcı adını çözer
func getUserInfo(c *fiber.Ctx) (uint, string, models.UserRole, error) {
	userID, err := auth.CallerID(c)
	if err != nil {
		return 0, "", "", err
	}

	role, err := auth.CallerRole(c)
	if err != nil {
		return 0, "", "", err
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	return userID, user.FullName(), role, nil
}

// canModify - nesne sahibi veya admin yazabilir
func canModify(callerID uint, role models.UserRole, ownerID uint) bool {
	return role == models.RoleAdmin || callerID == ownerID
}
