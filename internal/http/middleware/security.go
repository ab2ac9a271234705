// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware that attaches a
// conservative set of HTTP security headers. The service renders HTML pages
// (the watch form and the reactivation page) next to its JSON endpoints, so
// a Content-Security-Policy is emitted on HTML responses only. HSTS is opt-in
// and only applied when the request is actually HTTPS.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultFormCSP allows the form page to load the human-verification widgets.
const DefaultFormCSP = "default-src 'self'; " +
	"script-src 'self' https://www.google.com/recaptcha/ https://www.gstatic.com/recaptcha/ https://o.alicdn.com; " +
	"frame-src https://www.google.com/recaptcha/; " +
	"style-src 'self' 'unsafe-inline'; img-src 'self' data:; " +
	"form-action 'self'; frame-ancestors 'none'; base-uri 'self'"

// SecurityOptions configures HTTP security headers emitted by SecurityHeaders.
//
// EnableHSTS emits Strict-Transport-Security for HTTPS requests (never for
// plain HTTP); HSTSMaxAge defaults to 180 days when not positive. NoStore
// adds Cache-Control: no-store. EnablePolicy sends Permissions-Policy and
// X-Permitted-Cross-Domain-Policies. ContentSecurityPolicy, when set, is
// attached to responses whose Content-Type is text/html.
type SecurityOptions struct {
	EnableHSTS            bool
	HSTSMaxAge            time.Duration
	NoStore               bool
	EnablePolicy          bool
	ContentSecurityPolicy string
}

// SecurityHeaders returns a Gin middleware that adds security headers to each
// response. Baseline headers (nosniff, frame denial, no-referrer so
// reactivation tokens never leak through Referer) are always set.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security",
				"max-age="+strconv.Itoa(maxAge)+"; includeSubDomains; preload")
		}

		if rid := h.Get(requestIDHeader); rid != "" {
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, requestIDHeader)
			} else if !strings.Contains(cur, requestIDHeader) {
				h.Set(hdr, cur+", "+requestIDHeader)
			}
		}

		if opt.ContentSecurityPolicy != "" {
			c.Writer = &cspWriter{ResponseWriter: c.Writer, policy: opt.ContentSecurityPolicy}
		}

		c.Next()
	}
}

// cspWriter adds the CSP header right before an HTML response is committed,
// once the handler has chosen its Content-Type. gin's WriteHeader only
// records the status, so the header map is still mutable until the first
// write.
type cspWriter struct {
	gin.ResponseWriter
	policy string
	done   bool
}

func (w *cspWriter) apply() {
	if w.done {
		return
	}
	w.done = true
	if strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		w.Header().Set("Content-Security-Policy", w.policy)
	}
}

func (w *cspWriter) WriteHeaderNow() {
	w.apply()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *cspWriter) Write(b []byte) (int, error) {
	w.apply()
	return w.ResponseWriter.Write(b)
}

func (w *cspWriter) WriteString(s string) (int, error) {
	w.apply()
	return w.ResponseWriter.WriteString(s)
}

// isHTTPS reports whether the request used HTTPS directly or via a reverse
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
