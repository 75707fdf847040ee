package middleware // reusable HTTP middleware for the equipment API

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/medialab/equipment-booking/internal/model"
)

// Context keys set by JWTAuth.
const (
	CtxUserID = "user_id" // uint64
	CtxRole   = "role"    // string, USER or ADMIN
)

// JWTAuth returns an Echo middleware that validates an HS256 bearer
// access token.  The token must carry "exp", the "sub" claim must carry
// the numeric user id and the optional "role" claim the caller's role.
// Handlers read the result through Principal.
func JWTAuth(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// The header must look like "Bearer <token>".
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			uid, ok := subjectID(claims["sub"])
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			role, _ := claims["role"].(string)
			if role == "" {
				role = model.RoleUser
			}

			c.Set(CtxUserID, uid)
			c.Set(CtxRole, strings.ToUpper(role))
			return next(c)
		}
	}
}

// subjectID accepts "sub" either as a decimal string (the registered
// claim type) or as a JSON number.
func subjectID(v any) (uint64, bool) {
	switch s := v.(type) {
	case string:
		id, err := strconv.ParseUint(s, 10, 64)
		return id, err == nil && id > 0
	case float64:
		if s <= 0 || s != float64(uint64(s)) {
			return 0, false
		}
		return uint64(s), true
	}
	return 0, false
}

// Principal returns the authenticated caller.  ok is false when JWTAuth
// did not run for this request.
func Principal(c echo.Context) (model.Principal, bool) {
	uid, ok := c.Get(CtxUserID).(uint64)
	if !ok || uid == 0 {
		return model.Principal{}, false
	}
	role, _ := c.Get(CtxRole).(string)
	return model.Principal{UserID: uid, IsAdmin: role == model.RoleAdmin}, true
}
