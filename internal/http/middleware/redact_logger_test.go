package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

const sampleToken = "0123456789abcdef0123456789abcdef0123456789abcdef"

func TestRedact(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"mail=a.b+tag@example.com", "mail=[REDACTED:email]"},
		{"phone=0033612345678", "phone=[REDACTED:phone]"},
		{"id=123e4567-e89b-12d3-a456-426614174000", "id=[REDACTED:id]"},
		{"/request/reactivate/" + sampleToken, "/request/reactivate/[REDACTED:token]"},
		{"server=160sk1&zone=europe", "server=160sk1&zone=europe"},
	}
	for _, tc := range cases {
		if got := Redact(tc.in); got != tc.want {
			t.Errorf("Redact(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header(requestIDHeader, "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/request/reactivate/:token", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	q := "mail=a.b+tag@example.com&phone=+1-555-123-4567"
	req := httptest.NewRequest(http.MethodGet, "/request/reactivate/"+sampleToken+"?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "pushbullet_token=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Custom", "mail a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	req.Header.Set(requestIDHeader, "rid-req")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"info"`) {
		t.Fatalf("expected info log, got: %s", logs)
	}
	if !strings.Contains(logs, `"path":"/request/reactivate/:token"`) || strings.Contains(logs, sampleToken) {
		t.Fatalf("token must not reach the log: %s", logs)
	}
	if !strings.Contains(logs, `"request_id":"rid-resp"`) {
		t.Fatalf("expected request_id from response header, got: %s", logs)
	}
	if !strings.Contains(logs, `[REDACTED:email]`) || !strings.Contains(logs, `[REDACTED:phone]`) {
		t.Fatalf("expected query redactions, got: %s", logs)
	}
	for _, h := range []string{"Authorization", "Cookie", "X-Api-Key"} {
		if !strings.Contains(logs, `"`+h+`":"[REDACTED]"`) {
			t.Fatalf("%s must be masked: %s", h, logs)
		}
	}
	if !strings.Contains(logs, `"X-Custom":"mail [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]"`) {
		t.Fatalf("expected redacted X-Custom header, got: %s", logs)
	}
}

func TestRedactingLogger_UnmatchedPathIsRedacted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope/"+sampleToken, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	logs := buf.String()
	if !strings.Contains(logs, `"path":"/nope/[REDACTED:token]"`) || !strings.Contains(logs, `"level":"warn"`) {
		t.Fatalf("expected redacted warn log, got: %s", logs)
	}
}

func TestRedactingLogger_ErrorLevels_RequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/gin-error", func(c *gin.Context) {
		_ = c.Error(errSentinel{})
		c.Status(http.StatusUnprocessableEntity)
	})

	req := httptest.NewRequest(http.MethodGet, "/error", nil)
	req.Header.Set(requestIDHeader, "rid-err")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/gin-error", nil))

	logs := buf.String()
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) {
		t.Fatalf("error log not found or missing request_id fallback: %s", logs)
	}
	if !strings.Contains(logs, `"errors":"Error #01: boom`) {
		t.Fatalf("expected gin errors in log, got: %s", logs)
	}
}

type errSentinel struct{}

func (errSentinel) Error() string { return "boom" }
