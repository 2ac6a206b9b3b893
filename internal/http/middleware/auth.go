// README: Twilio request signature middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Twilio-Signature"

// SignatureValidator checks a Twilio webhook signature.
type SignatureValidator interface {
	Validate(url string, params map[string]string, expectedSignature string) bool
}

// TwilioSignature rejects webhook calls not signed with the account token.
// publicURL is the externally visible base URL; when empty the URL is
// rebuilt from the request.
func TwilioSignature(v SignatureValidator, publicURL string) gin.HandlerFunc {
	publicURL = strings.TrimSuffix(publicURL, "/")
	return func(c *gin.Context) {
		sig := c.GetHeader(signatureHeader)
		if sig == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing signature"})
			return
		}
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
			return
		}

		params := make(map[string]string, len(c.Request.PostForm))
		for k, vals := range c.Request.PostForm {
			if len(vals) > 0 {
				params[k] = vals[0]
			}
		}
		if !v.Validate(requestURL(c.Request, publicURL), params, sig) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

func requestURL(r *http.Request, publicURL string) string {
	if publicURL != "" {
		return publicURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
