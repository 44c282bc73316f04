package middleware

import "github.com/labstack/echo/v4"

// currentUserID returns the authenticated user id stored by JWTAuth, or
// "anon" for unauthenticated requests.  Used by the rate limiter to build
// per-user bucket keys.
func currentUserID(c echo.Context) string {
    if v := c.Get("user_id"); v != nil {
        if s, ok := v.(string); ok && s != "" {
            return s
        }
    }
    return "anon"
}
