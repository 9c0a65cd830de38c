package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sovieeet/gamevault/internal/auth"
	"github.com/sovieeet/gamevault/internal/config"
	"github.com/sovieeet/gamevault/internal/util"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key the gate sets on success.
const IdentityKey = "identity"

// Identity returns the username the gate resolved for this request.
func Identity(c *gin.Context) (string, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return "", false
	}
	username, ok := v.(string)
	return username, ok && username != ""
}

// AuthGate is the single enforcement point for login state. Paths matching a
// configured public prefix bypass it entirely; every other request must carry
// a resolvable token in the access cookie or the Authorization header.
//
// All rejection reasons produce the same response so callers cannot probe
// token validity: browser clients are redirected to the login page, API
// clients get a plain 401.
func AuthGate(cfg *config.Config, resolver *auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range cfg.Auth.PublicPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		// cookie first, bearer header as fallback
		var tokenStr string
		if cookie, err := c.Cookie(cfg.JWT.CookieName); err == nil {
			tokenStr = cookie
		}
		if tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}

		username, err := resolver.Resolve(tokenStr, time.Now())
		if err != nil {
			log.Printf("auth gate: %s %s rejected: %v", c.Request.Method, path, err)
			if wantsHTML(c) {
				c.Redirect(http.StatusFound, cfg.Auth.LoginPath)
			} else {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not authenticated")
			}
			c.Abort()
			return
		}

		c.Set(IdentityKey, username)
		c.Next()
	}
}

// wantsHTML reports whether the client is a browser expecting a page.
func wantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html")
}
