package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graphloader/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set(HeaderRunID, "7b0f7ae4-9c55-4c43-9d25-2f3c5d0b7a11")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil {
		t.Fatalf("trace data not attached")
	}
	if seen.RequestID != "req-1" || seen.TraceID == "" {
		t.Fatalf("unexpected trace data: %+v", seen)
	}
	if seen.RunID != "7b0f7ae4-9c55-4c43-9d25-2f3c5d0b7a11" {
		t.Fatalf("run id not propagated: %+v", seen)
	}
	if rec.Header().Get(HeaderRequestID) != "req-1" || rec.Header().Get(HeaderTraceID) != seen.TraceID {
		t.Fatalf("response headers not echoed: %v", rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRunID, "not-a-uuid")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if seen.RunID != "" {
		t.Fatalf("invalid run id should be ignored, got %q", seen.RunID)
	}
}
