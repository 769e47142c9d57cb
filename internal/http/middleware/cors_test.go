package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		configured []string
		origin     string
		preflight  bool
		wantAllow  string
	}{
		{"dev default preflight", nil, "http://localhost:5173", true, "http://localhost:5173"},
		{"dev default loopback", nil, "http://127.0.0.1:3000", true, "http://127.0.0.1:3000"},
		{"configured origin", []string{"https://autumn.example"}, "https://autumn.example", false, "https://autumn.example"},
		{"configured replaces defaults", []string{"https://autumn.example"}, "http://localhost:5173", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.configured...))
			r.Any("/api/sessions", func(c *gin.Context) { c.Status(http.StatusOK) })

			method := http.MethodGet
			if tt.preflight {
				method = http.MethodOptions
			}
			req := httptest.NewRequest(method, "/api/sessions", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
				req.Header.Set("Access-Control-Request-Headers", HeaderOwnerID)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Fatalf("allow-origin: want=%q got=%q (status=%d)", tt.wantAllow, got, rec.Code)
			}
		})
	}
}
