package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oliverbray/shopsmart-backend/pkg/config"
	pkgerrors "github.com/oliverbray/shopsmart-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(config.SearchConfig{BaseURL: server.URL, Country: "United Kingdom", PageSize: 100})
	return client, server
}

func TestLookupByBarcodeMapsPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/product/5000112546415.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":1,"product":{"code":"5000112546415","product_name":"Baked Beans","brands":"Heinz","image_small_url":"http://img","categories":"Canned foods","stores":"Tesco,Asda"}}`))
	})

	result, found, err := client.LookupByBarcode(context.Background(), "5000112546415")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !found {
		t.Fatal("expected product to be found")
	}
	if result.Name != "Baked Beans" || result.Brand != "Heinz" || result.StoreHint != "Tesco,Asda" {
		t.Fatalf("unexpected mapping %+v", result)
	}
}

func TestLookupByBarcodeNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":0}`))
	})

	_, found, err := client.LookupByBarcode(context.Background(), "000")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found {
		t.Fatal("expected not found")
	}
}

func TestLookupByBarcodeEmptyInput(t *testing.T) {
	client := NewClient(config.SearchConfig{})
	_, _, err := client.LookupByBarcode(context.Background(), "  ")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchBuildsStoreScopedQuery(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("search_terms") != "beans" {
			t.Fatalf("unexpected search terms %q", q.Get("search_terms"))
		}
		if q.Get("tag_0") != "Tesco" {
			t.Fatalf("unexpected store tag %q", q.Get("tag_0"))
		}
		if q.Get("tag_1") != "United Kingdom" {
			t.Fatalf("unexpected country tag %q", q.Get("tag_1"))
		}
		w.Write([]byte(`{"products":[{"code":"123","product_name":"Beans"},{"code":"","product_name":"No Code"}]}`))
	})

	results, err := client.Search(context.Background(), "beans", "Tesco")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected codeless rows dropped, got %d results", len(results))
	}
	if results[0].Barcode != "123" {
		t.Fatalf("unexpected result %+v", results[0])
	}
}

func TestSearchUpstreamFailureIsDependencyError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Search(context.Background(), "beans", "Tesco")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSearchMalformedBodyIsDependencyError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": nope`))
	})

	_, err := client.Search(context.Background(), "beans", "Tesco")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
