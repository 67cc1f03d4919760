package helper

import (
	"strings"

	"sekolahku_backend/internals/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Kunci Locals yang dihydrate middleware AuthJWT.
// Helper di bawah HANYA baca dari sini — jangan parse token ulang di controller.
const (
	LocUserID   = "user_id"
	LocUserName = "user_name"
	LocSchoolID = "school_id"
	LocRoles    = "roles"
)

// GetUserIDFromToken mengambil user_id (UUID) dari Locals.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	v, ok := c.Locals(LocUserID).(string)
	if !ok || strings.TrimSpace(v) == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user_id tidak ditemukan di token")
	}
	id, err := uuid.Parse(strings.TrimSpace(v))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user_id tidak valid")
	}
	return id, nil
}

// GetSchoolIDFromToken mengambil school_id aktif (tenant) dari Locals.
func GetSchoolIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	v, ok := c.Locals(LocSchoolID).(string)
	if !ok || strings.TrimSpace(v) == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "school_id tidak ditemukan di token")
	}
	id, err := uuid.Parse(strings.TrimSpace(v))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "school_id tidak valid")
	}
	return id, nil
}

// GetUserNameFromToken — untuk teks notifikasi; boleh kosong.
func GetUserNameFromToken(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocUserName).(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// GetRolesFromToken mengembalikan RoleSet tertutup; role asing dibuang.
func GetRolesFromToken(c *fiber.Ctx) constants.RoleSet {
	out := constants.RoleSet{}
	switch v := c.Locals(LocRoles).(type) {
	case []string:
		for _, s := range v {
			if r, ok := constants.ParseRole(s); ok {
				out = append(out, r)
			}
		}
	case []interface{}:
		for _, it := range v {
			if s, ok := it.(string); ok {
				if r, ok := constants.ParseRole(s); ok {
					out = append(out, r)
				}
			}
		}
	case string:
		if r, ok := constants.ParseRole(v); ok {
			out = append(out, r)
		}
	}
	return out
}
