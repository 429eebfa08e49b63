package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// botPatterns are known crawler User-Agent substrings (lowercase).
var botPatterns = []string{
	"googlebot", "bingbot", "slurp", "duckduckbot",
	"baiduspider", "yandexbot", "facebookexternalhit",
	"twitterbot", "linkedinbot", "embedly", "pinterest",
	"applebot", "semrushbot", "ahrefsbot", "petalbot",
	"bytespider",
}

// isBotKey is the gin context key set by BotFilter.
const isBotKey = "is_bot"

// BotFilter flags requests from known crawlers so tracking handlers can
// acknowledge them without polluting the analytics counters.
func BotFilter() gin.HandlerFunc {
	return func(c *gin.Context) {
		ua := strings.ToLower(c.Request.UserAgent())
		if ua == "" || isBot(ua) {
			c.Set(isBotKey, true)
		}
		c.Next()
	}
}

// IsBot reports whether BotFilter flagged the request.
func IsBot(c *gin.Context) bool {
	return c.GetBool(isBotKey)
}

func isBot(ua string) bool {
	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}
