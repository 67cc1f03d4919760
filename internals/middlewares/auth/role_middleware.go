package auth

import (
	"github.com/gofiber/fiber/v2"

	"sekolahku_backend/internals/constants"
	helperAuth "sekolahku_backend/internals/helpers/auth"
)

// RequireCapability menolak request bila tidak ada role di token
// yang punya capability tsb. Cek lewat capability set, bukan string role.
func RequireCapability(cap constants.Capability, feature string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles := helperAuth.GetRolesFromToken(c)
		if !roles.Has(cap) {
			msg := constants.RoleErrorReviewer(feature)
			if cap == constants.CapEnterMarks {
				msg = constants.RoleErrorMarkEntry(feature)
			}
			return fiber.NewError(fiber.StatusForbidden, msg)
		}
		return c.Next()
	}
}
