package content

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/zhouzirui/z-affirm/backend/internal/model/content"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(content.NewMemoryStore(content.Seed())).RegisterRoutes(r)
	return r
}

func get(t *testing.T, r http.Handler, path string, out any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d", path, resp.Code)
	}
	if err := json.Unmarshal(resp.Body.Bytes(), out); err != nil {
		t.Fatalf("GET %s: decode body: %v", path, err)
	}
}

func TestListEndpoints(t *testing.T) {
	r := setupRouter()
	seed := content.Seed()

	var articles []content.Article
	get(t, r, "/articles", &articles)
	if diff := cmp.Diff(seed.Articles, articles); diff != "" {
		t.Fatalf("articles mismatch (-want +got):\n%s", diff)
	}

	var gallery []content.GalleryImage
	get(t, r, "/gallery", &gallery)
	if diff := cmp.Diff(seed.Gallery, gallery); diff != "" {
		t.Fatalf("gallery mismatch (-want +got):\n%s", diff)
	}

	var resources []content.ResourceLink
	get(t, r, "/resources", &resources)
	if diff := cmp.Diff(seed.Resources, resources); diff != "" {
		t.Fatalf("resources mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	var catalog content.Catalog
	get(t, setupRouter(), "/content", &catalog)

	if diff := cmp.Diff(content.Seed(), catalog); diff != "" {
		t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyStoreReturnsEmptyArrays(t *testing.T) {
	r := chi.NewRouter()
	New(content.NewMemoryStore(content.Catalog{})).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/resources", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if got := resp.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}
