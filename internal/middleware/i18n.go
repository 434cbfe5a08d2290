// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/abc-retail/internal/i18n"
)

// I18nMiddleware stores the preferred locale under "lang". Only the first
// Accept-Language entry is considered; anything without a loaded locale
// falls back to "en".
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", resolveLang(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

func resolveLang(header string) string {
	if header == "" {
		return "en"
	}

	// Handle cases like "zh-TW,zh;q=0.9,en;q=0.8"
	first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	switch first {
	case "zh-TW", "zh-Hant", "zh_TW", "zh-HK":
		return "zh_TW"
	}

	tag := strings.ReplaceAll(first, "-", "_")
	base, _, _ := strings.Cut(tag, "_")
	for _, lang := range i18n.GetSupportedLanguages() {
		if strings.EqualFold(lang, tag) || strings.EqualFold(lang, base) {
			return lang
		}
	}
	return "en"
}
