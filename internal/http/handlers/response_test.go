package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/serverwatch/availability-watch/internal/services"
	"github.com/serverwatch/availability-watch/internal/web"
)

func Test_fail_500_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-500" || resp.Code != ErrCodeInternal || resp.Message != "kaboom" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_Fail_404_And_ok(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-404")
		c.Next()
	})
	r.GET("/missing", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope") })
	r.GET("/ok", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || w.Code != http.StatusNotFound {
		t.Fatalf("status=%d err=%v", w.Code, err)
	}
	if er.RequestID != "rid-404" || er.Code != ErrCodeNotFound || er.Fields != nil {
		t.Fatalf("unexpected 404 body: %+v", er)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected ok response: %d %s", w.Code, w.Body.String())
	}
}

func Test_renderError_Negotiates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(web.MustTemplates())
	r.GET("/down", func(c *gin.Context) {
		renderError(c, http.StatusBadGateway, ErrCodeUpstream, msgUpstream, errors.New("dial tcp: refused"))
	})

	// Browser
	req := httptest.NewRequest(http.MethodGet, "/down", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadGateway || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected HTML 502, got %d %q", w.Code, w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), msgUpstream) || strings.Contains(w.Body.String(), "refused") {
		t.Fatalf("error view must show the generic message only:\n%s", w.Body.String())
	}

	// API client
	req = httptest.NewRequest(http.MethodGet, "/down", nil)
	req.Header.Set("Accept", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeUpstream || er.Message != msgUpstream {
		t.Fatalf("unexpected body: %+v", er)
	}
}

func Test_classify(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		isRej  bool
	}{
		{"form", &services.Rejection{Reason: services.ErrFormInvalid}, http.StatusUnprocessableEntity, ErrCodeFormInvalid, true},
		{"phone", &services.Rejection{Reason: services.ErrInvalidPhone}, http.StatusUnprocessableEntity, ErrCodeInvalidPhone, true},
		{"human", &services.Rejection{Reason: services.ErrNotHuman}, http.StatusUnprocessableEntity, ErrCodeNotHuman, true},
		{"pending", &services.Rejection{Reason: services.ErrAlreadyPending}, http.StatusConflict, ErrCodeAlreadyPending, true},
		{"available", &services.Rejection{Reason: services.ErrOfferAvailable}, http.StatusConflict, ErrCodeOfferAvailable, true},
		{"token", &services.Rejection{Reason: services.ErrInvalidToken}, http.StatusNotFound, ErrCodeInvalidToken, true},
		{"active", &services.Rejection{Reason: services.ErrRequestActive}, http.StatusConflict, ErrCodeRequestActive, true},
		{"upstream", fmt.Errorf("%w: verify: timeout", services.ErrUpstream), http.StatusBadGateway, ErrCodeUpstream, false},
		{"persistence", fmt.Errorf("%w: create: disk full", services.ErrPersistence), http.StatusInternalServerError, ErrCodeInternal, false},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code, msg, rej := classify(tc.err)
			if status != tc.status || code != tc.code || (rej != nil) != tc.isRej || msg == "" {
				t.Fatalf("classify = (%d, %q, %q, %v)", status, code, msg, rej)
			}
		})
	}
}
