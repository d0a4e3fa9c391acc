package geoloc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClientLookupParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"latitude": 59.33, "longitude": 18.07}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	lat, lon, err := c.Lookup(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if lat != 59.33 || lon != 18.07 {
		t.Errorf("got (%v, %v)", lat, lon)
	}
}

func TestHTTPClientLookupRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	if _, _, err := c.Lookup(context.Background()); err == nil {
		t.Error("expected error for non-200 response")
	}
}
