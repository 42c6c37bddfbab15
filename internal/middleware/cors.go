package middleware

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// OriginMatcher decides which request origins receive CORS headers.
// Origins are compared exactly, patterns are regular expressions.
type OriginMatcher struct {
	exact    map[string]bool
	patterns []*regexp.Regexp
}

// NewOriginMatcher compiles the allow-list. An invalid pattern is an error.
func NewOriginMatcher(origins, patterns []string) (*OriginMatcher, error) {
	m := &OriginMatcher{exact: make(map[string]bool, len(origins))}
	for _, o := range origins {
		if o != "" {
			m.exact[o] = true
		}
	}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid CORS origin pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// Allowed reports whether origin is on the allow-list.
func (m *OriginMatcher) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if m.exact[origin] {
		return true
	}
	for _, re := range m.patterns {
		if re.MatchString(origin) {
			return true
		}
	}
	return false
}

// CORS returns a middleware that handles Cross-Origin Resource Sharing (CORS).
// The Origin is echoed only when allowed. Preflight OPTIONS requests are answered with 200.
func CORS(matcher *OriginMatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if matcher.Allowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
