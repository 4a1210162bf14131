package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPackageIndexLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pypi/rapidkit-core/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"info":{"name":"rapidkit-core","version":"0.24.1"},"releases":{}}`))
		case "/pypi/empty/json":
			_, _ = w.Write([]byte(`{"info":{}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tests := []struct {
		name    string
		pkg     string
		want    string
		wantErr bool
	}{
		{"found", "", "0.24.1", false},
		{"unknown package", "nope", "", true},
		{"no version", "empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewPackageIndex(srv.URL+"/", tt.pkg, srv.Client())
			got, err := idx.Latest(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Latest: %v", err)
			}
			if got != tt.want {
				t.Errorf("Latest = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPackageIndexLatest_Canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewPackageIndex(srv.URL, "", srv.Client()).Latest(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}
