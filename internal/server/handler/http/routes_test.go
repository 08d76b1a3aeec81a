package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/blobstore"
	"github.com/edubreuil/flashkeeper/internal/kvstore"
	"github.com/edubreuil/flashkeeper/internal/maintenance"
	"github.com/edubreuil/flashkeeper/internal/media"
	"github.com/edubreuil/flashkeeper/internal/migrate"
	"github.com/edubreuil/flashkeeper/internal/models"
	"github.com/edubreuil/flashkeeper/internal/records"
	"github.com/edubreuil/flashkeeper/internal/share"
)

// newTestRouter wires real stores behind the full router.
func newTestRouter(t *testing.T) (http.Handler, *records.Store) {
	t.Helper()
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "records.json"))
	if err != nil {
		t.Fatalf("open kvstore: %v", err)
	}
	log := zap.NewNop()
	ms := blobstore.NewMediaStore(blobstore.NewMemory(), media.GzipCodec{}, 0, log)
	store := records.New(kv, ms, log)
	engine := migrate.New(store, log)
	codec := share.NewCodec(store, kv, log)
	sweeper := maintenance.NewSweeper(kv, ms, log)

	router := NewRouter(
		&AuthHandler{Store: store},
		&DeckHandler{Store: store},
		&ThemeHandler{Store: store},
		&FlashcardHandler{Store: store},
		&SessionHandler{Store: store},
		&ShareHandler{Store: store, Codec: codec, Origin: "http://localhost:8080"},
		&MaintenanceHandler{Store: store, Engine: engine, Sweeper: sweeper},
		store,
		log,
	)
	return router, store
}

// do performs a JSON request against the router and decodes the
// response body into out when out is non-nil.
func do(t *testing.T, router http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

func register(t *testing.T, router http.Handler) models.User {
	t.Helper()
	var user models.User
	rec := do(t, router, "POST", "/api/register", map[string]string{
		"username": "ivy",
		"email":    "ivy@example.com",
		"password": "pw",
	}, &user)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	return user
}

func TestRouter_RequiresSession(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, "GET", "/api/decks", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", rec.Code)
	}
}

func TestRouter_RegisterAndCRUD(t *testing.T) {
	router, _ := newTestRouter(t)
	register(t, router)

	var deck models.Deck
	rec := do(t, router, "POST", "/api/decks", map[string]any{"title": "HTTP deck"}, &deck)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create deck status = %d: %s", rec.Code, rec.Body.String())
	}
	if deck.Title != "HTTP deck" {
		t.Errorf("deck title = %q", deck.Title)
	}

	var card models.Flashcard
	rec = do(t, router, "POST", "/api/flashcards", map[string]any{
		"deckId": deck.ID,
		"front":  map[string]string{"text": "hello"},
		"back":   map[string]string{"text": "hola"},
	}, &card)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create flashcard status = %d: %s", rec.Code, rec.Body.String())
	}

	var cards []models.Flashcard
	rec = do(t, router, "GET", "/api/flashcards?deckId="+deck.ID, nil, &cards)
	if rec.Code != http.StatusOK || len(cards) != 1 {
		t.Fatalf("list status = %d, %d cards", rec.Code, len(cards))
	}

	title := "Renamed"
	var updated models.Deck
	rec = do(t, router, "PUT", "/api/decks/"+deck.ID, map[string]any{"title": title}, &updated)
	if rec.Code != http.StatusOK || updated.Title != title {
		t.Fatalf("update status = %d, title %q", rec.Code, updated.Title)
	}

	rec = do(t, router, "DELETE", "/api/decks/"+deck.ID, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(t, router, "GET", "/api/decks/"+deck.ID, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d; want 404", rec.Code)
	}
}

func TestRouter_GetUnknownDeck(t *testing.T) {
	router, _ := newTestRouter(t)
	register(t, router)
	rec := do(t, router, "GET", "/api/decks/unknown", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", rec.Code)
	}
}

func TestRouter_ShareFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	register(t, router)

	var deck models.Deck
	do(t, router, "POST", "/api/decks", map[string]any{"title": "Shareable"}, &deck)
	do(t, router, "POST", "/api/themes", map[string]any{"deckId": deck.ID, "title": "T1"}, nil)

	var shared map[string]string
	rec := do(t, router, "POST", "/api/decks/"+deck.ID+"/share", map[string]int{"expiryDays": 7}, &shared)
	if rec.Code != http.StatusOK {
		t.Fatalf("share status = %d: %s", rec.Code, rec.Body.String())
	}
	code := shared["code"]
	if code == "" {
		t.Fatal("no share code in response")
	}
	wantURL := fmt.Sprintf("http://localhost:8080/import/%s", code)
	if shared["url"] != wantURL {
		t.Errorf("share url = %q; want %q", shared["url"], wantURL)
	}

	// Resolution is public: no session or JSON content type needed.
	var export models.SharedDeckExport
	rec = do(t, router, "GET", "/import/"+code, nil, &export)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d: %s", rec.Code, rec.Body.String())
	}
	if export.OriginalID != deck.ID {
		t.Errorf("export original = %q; want %q", export.OriginalID, deck.ID)
	}
	if len(export.Themes) != 1 {
		t.Errorf("export themes = %d; want 1", len(export.Themes))
	}

	rec = do(t, router, "GET", "/import/share_bogus_0_0", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("bogus code status = %d; want 404", rec.Code)
	}
}

func TestRouter_ExportImport(t *testing.T) {
	router, store := newTestRouter(t)
	register(t, router)

	var deck models.Deck
	do(t, router, "POST", "/api/decks", map[string]any{"title": "Backup me"}, &deck)

	var doc models.ExportDocument
	rec := do(t, router, "GET", "/api/export", nil, &doc)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if doc.Version == "" || len(doc.Decks) != 1 {
		t.Fatalf("unexpected document: version %q, %d decks", doc.Version, len(doc.Decks))
	}

	// Wipe the deck, restore from the snapshot.
	store.DeleteDeck(context.Background(), deck.ID)
	rec = do(t, router, "POST", "/api/import", doc, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := store.GetDeck(deck.ID); err != nil {
		t.Errorf("deck not restored: %v", err)
	}

	// Invalid documents are rejected whole.
	rec = do(t, router, "POST", "/api/import", map[string]any{"decks": map[string]any{}}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid import status = %d; want 400", rec.Code)
	}
}

func TestRouter_MaintenanceEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	register(t, router)

	var pending map[string]int
	rec := do(t, router, "GET", "/api/maintenance/pending", nil, &pending)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending status = %d", rec.Code)
	}
	if pending["pending"] != 0 {
		t.Errorf("pending = %d; want 0", pending["pending"])
	}

	var capacity blobstore.Capacity
	rec = do(t, router, "GET", "/api/maintenance/capacity", nil, &capacity)
	if rec.Code != http.StatusOK {
		t.Fatalf("capacity status = %d", rec.Code)
	}
	if capacity.Quota != blobstore.DefaultQuota {
		t.Errorf("quota = %d; want default", capacity.Quota)
	}

	var migrated map[string]int
	rec = do(t, router, "POST", "/api/maintenance/migrate", map[string]any{}, &migrated)
	if rec.Code != http.StatusOK {
		t.Fatalf("migrate status = %d", rec.Code)
	}
}

func TestRouter_LoginLogout(t *testing.T) {
	router, _ := newTestRouter(t)
	register(t, router)

	rec := do(t, router, "POST", "/api/logout", map[string]any{}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec = do(t, router, "GET", "/api/me", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d; want 401", rec.Code)
	}

	rec = do(t, router, "POST", "/api/login", map[string]string{
		"email":    "ivy@example.com",
		"password": "pw",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var me models.User
	rec = do(t, router, "GET", "/api/me", nil, &me)
	if rec.Code != http.StatusOK || me.Username != "ivy" {
		t.Errorf("me status = %d, username %q", rec.Code, me.Username)
	}

	rec = do(t, router, "POST", "/api/login", map[string]string{
		"email":    "ivy@example.com",
		"password": "wrong",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d; want 401", rec.Code)
	}
}
