package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStatic(t *testing.T) {
	if !Static(true).Online(context.Background()) {
		t.Error("Static(true) should be online")
	}
	if Static(false).Online(context.Background()) {
		t.Error("Static(false) should be offline")
	}
}

func TestHTTPProbe(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"ok", http.StatusOK, true},
		{"not found still reachable", http.StatusNotFound, true},
		{"server error", http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodHead {
					t.Errorf("method = %s, want HEAD", r.Method)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			if got := NewHTTPProbe(server.URL, time.Second).Online(context.Background()); got != tt.want {
				t.Errorf("Online = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPProbe_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	if NewHTTPProbe(url, 200*time.Millisecond).Online(context.Background()) {
		t.Error("closed server should be offline")
	}
}
