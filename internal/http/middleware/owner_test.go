package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/platform/ctxutil"
)

func TestRequireOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	owner := uuid.New()

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"missing", "", http.StatusBadRequest, "missing_owner"},
		{"garbage", "not-a-uuid", http.StatusBadRequest, "invalid_owner"},
		{"nil uuid", uuid.Nil.String(), http.StatusBadRequest, "invalid_owner"},
		{"valid", " " + owner.String() + " ", http.StatusOK, owner.String()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequireOwner())
			r.GET("/api/x", func(c *gin.Context) {
				c.String(http.StatusOK, ctxutil.OwnerID(c.Request.Context()).String())
			})

			req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
			if tt.header != "" {
				req.Header.Set(HeaderOwnerID, tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status: want=%d got=%d body=%s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("body: want substring %q got=%s", tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestAttachTraceContextEchoesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.RequestID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(headerRequestID); got != "req-123" {
		t.Fatalf("request id header: want=req-123 got=%q", got)
	}
	if rec.Body.String() != "req-123" {
		t.Fatalf("request id in context: want=req-123 got=%q", rec.Body.String())
	}
	if rec.Header().Get(headerTraceID) == "" {
		t.Fatalf("trace id header should be generated")
	}
}

func TestAttachTraceContextReplacesUnsafeRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, raw := range []string{"has space", strings.Repeat("a", maxRequestIDLen+1)} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(headerRequestID, raw)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		got := rec.Header().Get(headerRequestID)
		if got == raw || uuid.Validate(got) != nil {
			t.Fatalf("request id %q: want generated uuid got=%q", raw, got)
		}
	}
}
