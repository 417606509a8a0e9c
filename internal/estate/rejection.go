package estate

import "github.com/gofiber/fiber/v2"

// Rejections - alan bazlı doğrulama hataları: alan adı -> gerekçe listesi.
// Doğrulama reddi her zaman 400 ile, bu şekliyle döner; kısmi kayıt asla olmaz.
type Rejections map[string][]string

func (r Rejections) Add(field, reason string) {
	r[field] = append(r[field], reason)
}

func (r Rejections) Empty() bool {
	return len(r) == 0
}

func rejectionOf(field, reason string) Rejections {
	return Rejections{field: {reason}}
}

func respondRejections(c *fiber.Ctx, rej Rejections) error {
	return c.Status(fiber.StatusBadRequest).JSON(rej)
}
