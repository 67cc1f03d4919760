package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	helperAuth "sekolahku_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool // pakai cookie access_token jika tidak ada Bearer
}

// AuthJWT memverifikasi bearer token HMAC dan hydrate Locals
// (user_id, user_name, school_id, roles) untuk helper & guard di hilir.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: Secret wajib diisi")
	}

	return func(c *fiber.Ctx) error {
		// 1) Ambil token: Authorization: Bearer xxx (atau cookie jika diizinkan)
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw = strings.TrimSpace(c.Cookies("access_token"))
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		// 2) Parse + verifikasi algoritma
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
		}

		// Simpan raw claims (opsional)
		c.Locals("jwt_claims", claims)

		// === HYDRATE LOCALS ===

		// user_id: id/sub/user_id dalam urutan preferensi
		switch {
		case strClaim(claims, "id") != "":
			c.Locals(helperAuth.LocUserID, strClaim(claims, "id"))
		case strClaim(claims, "sub") != "":
			c.Locals(helperAuth.LocUserID, strClaim(claims, "sub"))
		case strClaim(claims, "user_id") != "":
			c.Locals(helperAuth.LocUserID, strClaim(claims, "user_id"))
		}

		if v := strClaim(claims, "user_name"); v != "" {
			c.Locals(helperAuth.LocUserName, v)
		} else if v := strClaim(claims, "name"); v != "" {
			c.Locals(helperAuth.LocUserName, v)
		}

		if sid := strClaim(claims, "school_id"); sid != "" {
			c.Locals(helperAuth.LocSchoolID, sid)
		}

		if v, ok := claims["roles"]; ok {
			c.Locals(helperAuth.LocRoles, v)
		} else if r := strClaim(claims, "role"); r != "" {
			c.Locals(helperAuth.LocRoles, r)
		}

		// Fail-fast: user_id wajib UUID
		if v, ok := c.Locals(helperAuth.LocUserID).(string); ok {
			if _, err := uuid.Parse(strings.TrimSpace(v)); err != nil {
				return fiber.NewError(fiber.StatusUnauthorized, "user_id tidak valid")
			}
		}

		return c.Next()
	}
}

func strClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
