package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware_Handle(t *testing.T) {
	validator := NewKeyValidator([]Key{
		{Name: "field-ops", Secret: "sk-valid-0123456789", Enabled: true},
		{Name: "retired", Secret: "sk-disabled-0123456789"},
	})

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{name: "bearer token", header: "Authorization", value: "Bearer sk-valid-0123456789", wantStatus: http.StatusOK},
		{name: "x-api-key header", header: "X-API-Key", value: "sk-valid-0123456789", wantStatus: http.StatusOK},
		{name: "missing key", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Authorization", value: "Basic sk-valid-0123456789", wantStatus: http.StatusUnauthorized},
		{name: "invalid key", header: "Authorization", value: "Bearer sk-nope", wantStatus: http.StatusUnauthorized},
		{name: "disabled key", header: "X-API-Key", value: "sk-disabled-0123456789", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *Operator
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = OperatorFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/sync", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			NewMiddleware(validator, nil).Handle(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if seen == nil || seen.Name != "field-ops" {
					t.Errorf("operator in context = %+v, want field-ops", seen)
				}
			} else if rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header on rejection")
			}
		})
	}
}

func TestOperatorFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := OperatorFromContext(req.Context()); ok {
		t.Error("OperatorFromContext() ok on a bare request")
	}
}
