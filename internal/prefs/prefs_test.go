package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/pageview/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestSetGetDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "doc-1", "theme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store: err = %v, want ErrNotFound", err)
	}
	if err := store.Set(ctx, "doc-1", "theme", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "doc-1", "theme", "light"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := store.Get(ctx, "doc-1", "theme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "light" {
		t.Errorf("value = %q, want %q", got, "light")
	}
	if _, err := store.Get(ctx, "doc-2", "theme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("values leaked across documents: %v", err)
	}

	if err := store.Delete(ctx, "doc-1", "theme"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "doc-1", "theme"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after Delete: err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "doc-1", "theme"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestScaleAndPage(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if _, ok, err := store.LastScale(ctx, "doc"); ok || err != nil {
		t.Fatalf("LastScale on empty store = %v, %v", ok, err)
	}
	if err := store.SaveScale(ctx, "doc", 1.75); err != nil {
		t.Fatalf("SaveScale: %v", err)
	}
	if err := store.SavePage(ctx, "doc", 12); err != nil {
		t.Fatalf("SavePage: %v", err)
	}

	scale, ok, err := store.LastScale(ctx, "doc")
	if err != nil || !ok || scale != 1.75 {
		t.Errorf("LastScale = %v, %v, %v; want 1.75", scale, ok, err)
	}
	page, ok, err := store.LastPage(ctx, "doc")
	if err != nil || !ok || page != 12 {
		t.Errorf("LastPage = %v, %v, %v; want 12", page, ok, err)
	}

	// Garbage values are ignored rather than failing the viewer.
	store.Set(ctx, "doc", KeyPage, "twelve")
	if _, ok, err := store.LastPage(ctx, "doc"); ok || err != nil {
		t.Errorf("LastPage with garbage = %v, %v", ok, err)
	}

	entries, err := store.List(ctx, "doc")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != KeyPage || entries[1].Key != KeyScale {
		t.Errorf("List = %+v", entries)
	}
}

func TestRecentOpens(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, doc := range []string{"a", "b", "c"} {
		if err := store.RecordOpen(ctx, doc, FrontendWeb); err != nil {
			t.Fatalf("RecordOpen: %v", err)
		}
	}
	if err := store.RecordOpen(ctx, "a", "carrier-pigeon"); err == nil {
		t.Error("expected error for unknown frontend")
	}

	opens, err := store.RecentOpens(ctx, 2)
	if err != nil {
		t.Fatalf("RecentOpens: %v", err)
	}
	if len(opens) != 2 {
		t.Fatalf("got %d opens, want 2", len(opens))
	}
	if opens[0].DocumentID != "c" || opens[1].DocumentID != "b" {
		t.Errorf("order = %s, %s; want c, b", opens[0].DocumentID, opens[1].DocumentID)
	}
	if opens[0].Frontend != FrontendWeb || opens[0].ID == "" {
		t.Errorf("open = %+v", opens[0])
	}
}

func setupRouter(t *testing.T) (chi.Router, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r, store
}

func TestHTTPStateRoundTrip(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/state/doc-9/scale", strings.NewReader(`{"value":"2"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/state/doc-9/scale", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["value"] != "2" {
		t.Errorf("value = %q, want 2", got["value"])
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/state/doc-9/scale", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/state/doc-9/scale", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHTTPBadBody(t *testing.T) {
	r, _ := setupRouter(t)
	req := httptest.NewRequest(http.MethodPut, "/api/state/doc/scale", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHTTPListAndRecent(t *testing.T) {
	r, store := setupRouter(t)
	ctx := context.Background()
	store.SaveScale(ctx, "doc", 1.25)
	store.RecordOpen(ctx, "doc", FrontendTUI)

	req := httptest.NewRequest(http.MethodGet, "/api/state/doc/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var entries []Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Value != "1.25" {
		t.Errorf("entries = %+v", entries)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/recent?limit=5", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var opens []Open
	if err := json.NewDecoder(rec.Body).Decode(&opens); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(opens) != 1 || opens[0].Frontend != FrontendTUI {
		t.Errorf("opens = %+v", opens)
	}
}
