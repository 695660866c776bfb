package email

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront/internal/validation"
)

func TestHandler_HandleSend(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{
			name:       "sent",
			body:       `{"to":"ada@example.com","subject":"Your receipt","body":"Total: 250.00"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing recipient and subject",
			body:       `{"to":"","subject":"  "}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"to", "subject"},
		},
		{
			name:       "bad address",
			body:       `{"to":"not-an-address","subject":"hi"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"to"},
		},
		{
			name:       "invalid json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}

	h := NewHandler(validation.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleSend(rec, httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if len(tt.wantFields) == 0 {
				return
			}

			var resp struct {
				Fields map[string]string `json:"fields"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for _, f := range tt.wantFields {
				if _, ok := resp.Fields[f]; !ok {
					t.Errorf("expected field %q in %v", f, resp.Fields)
				}
			}
		})
	}
}
