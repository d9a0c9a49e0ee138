package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rostermind/rostermind/pkg/logger"
)

func TestLogger(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		handlerStatus  int
		handlerBody    string
		wantStatusCode int
	}{
		{
			name:           "stats read",
			method:         http.MethodGet,
			path:           "/api/v1/teams/team-a/memory/stats",
			handlerStatus:  http.StatusOK,
			handlerBody:    `{"total_items":5}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "item stored",
			method:         http.MethodPost,
			path:           "/api/v1/teams/team-a/memory",
			handlerStatus:  http.StatusCreated,
			handlerBody:    `{"id":"9f2c"}`,
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "preference learned",
			method:         http.MethodPost,
			path:           "/api/v1/teams/team-a/memory/preferences",
			handlerStatus:  http.StatusNoContent,
			handlerBody:    "",
			wantStatusCode: http.StatusNoContent,
		},
		{
			name:           "unknown route",
			method:         http.MethodGet,
			path:           "/api/v1/teams/team-a/unknown",
			handlerStatus:  http.StatusNotFound,
			handlerBody:    `{"error":"not found"}`,
			wantStatusCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.New(&logger.Config{
				Level:  logger.ErrorLevel,
				Format: "json",
				Output: "stderr",
			})

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
				if tt.handlerBody != "" {
					w.Write([]byte(tt.handlerBody))
				}
			})

			wrapped := Logger(log)(handler)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Errorf("Logger middleware status = %v, want %v", w.Code, tt.wantStatusCode)
			}
			if w.Body.String() != tt.handlerBody {
				t.Errorf("Logger middleware body = %v, want %v", w.Body.String(), tt.handlerBody)
			}
		})
	}
}
