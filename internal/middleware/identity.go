package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PrincipalID returns the authenticated user id stored by JWTAuth or
// OptionalJWT.  ok is false for anonymous requests.
func PrincipalID(c echo.Context) (uint64, bool) {
	id, ok := c.Get("user_id").(uint64)
	return id, ok && id > 0
}

// currentUserID renders the principal for cache and rate-limit keys;
// anonymous callers share "anon".
func currentUserID(c echo.Context) string {
	if id, ok := PrincipalID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
