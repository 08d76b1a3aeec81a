package records

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/blobstore"
	"github.com/edubreuil/flashkeeper/internal/kvstore"
	"github.com/edubreuil/flashkeeper/internal/media"
	"github.com/edubreuil/flashkeeper/internal/models"
)

// newTestStore builds a Store over a temp document and an in-memory
// blob backend with gzip compression.
func newTestStore(t *testing.T) (*Store, *blobstore.Memory) {
	t.Helper()
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "records.json"))
	if err != nil {
		t.Fatalf("open kvstore: %v", err)
	}
	backend := blobstore.NewMemory()
	ms := blobstore.NewMediaStore(backend, media.GzipCodec{}, 0, zap.NewNop())
	return New(kv, ms, zap.NewNop()), backend
}

// signUp registers an account so the session-guarded operations work.
func signUp(t *testing.T, s *Store) *models.User {
	t.Helper()
	user, err := s.Register("alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return user
}

// inlinePNG is a small but valid data URI payload for migration tests.
func inlinePNG() string {
	return media.ToDataURI([]byte("png bytes do not need to decode"), "image/png")
}

func inlineMP3() string {
	return media.ToDataURI([]byte("mp3 frame data"), "audio/mp3")
}

func TestRegisterOpensSession(t *testing.T) {
	s, _ := newTestStore(t)
	user := signUp(t, s)

	if !s.HasSession() {
		t.Fatal("expected active session after register")
	}
	current, err := s.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if current.ID != user.ID {
		t.Errorf("session user = %s; want %s", current.ID, user.ID)
	}
	if current.Settings == nil || !current.Settings.Notifications {
		t.Error("expected default settings on new account")
	}
}

func TestLoginLogout(t *testing.T) {
	s, _ := newTestStore(t)
	user := signUp(t, s)
	if err := s.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if s.HasSession() {
		t.Fatal("session survived logout")
	}

	if _, err := s.Login("alice@example.com", "wrong"); err != ErrNotAuthenticated {
		t.Errorf("Login with bad password = %v; want ErrNotAuthenticated", err)
	}
	got, err := s.Login("alice@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("Login user = %s; want %s", got.ID, user.ID)
	}
}

func TestCurrentUserID(t *testing.T) {
	s, _ := newTestStore(t)
	if got := s.CurrentUserID(context.Background()); got != "" {
		t.Errorf("CurrentUserID without session = %q; want empty", got)
	}
	user := signUp(t, s)
	if got := s.CurrentUserID(context.Background()); got != user.ID {
		t.Errorf("CurrentUserID = %q; want %q", got, user.ID)
	}
}

func TestCreateFlashcard_MigratesInlineMedia(t *testing.T) {
	s, _ := newTestStore(t)
	signUp(t, s)
	deck, err := s.CreateDeck(models.Deck{Title: "Kanji"})
	if err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}

	card, err := s.CreateFlashcard(models.Flashcard{
		DeckID: deck.ID,
		Front:  models.CardSide{Text: "water", Image: inlinePNG()},
		Back:   models.CardSide{Text: "mizu", Audio: inlineMP3()},
	})
	if err != nil {
		t.Fatalf("CreateFlashcard failed: %v", err)
	}

	// The returned card still carries the inline form; the reference
	// appears once the background jobs land.
	if card.Front.ImageID != "" {
		t.Error("reference set before migration completed")
	}

	s.Flush()

	stored, err := s.GetFlashcard(card.ID)
	if err != nil {
		t.Fatalf("GetFlashcard failed: %v", err)
	}
	if stored.Front.ImageID == "" {
		t.Fatal("front image was not migrated")
	}
	if stored.Back.AudioID == "" {
		t.Fatal("back audio was not migrated")
	}
	// The inline copies are retained until a cleanup sweep.
	if !media.IsDataURI(stored.Front.Image) {
		t.Error("inline image dropped before cleanup")
	}

	// The blobs round-trip through the media store.
	ctx := context.Background()
	blob, err := s.Media().Get(ctx, models.Image, stored.Front.ImageID)
	if err != nil {
		t.Fatalf("media Get failed: %v", err)
	}
	want, _, _ := media.FromDataURI(inlinePNG(), "")
	if string(blob) != string(want) {
		t.Error("migrated blob does not match inline payload")
	}
}

func TestCreateFlashcard_RequiresDeck(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateFlashcard(models.Flashcard{}); err == nil {
		t.Error("expected error for flashcard without deck")
	}
}

func TestHydrateFlashcard(t *testing.T) {
	s, _ := newTestStore(t)
	signUp(t, s)
	deck, _ := s.CreateDeck(models.Deck{Title: "Audio"})
	card, err := s.CreateFlashcard(models.Flashcard{
		DeckID: deck.ID,
		Front:  models.CardSide{Image: inlinePNG()},
	})
	if err != nil {
		t.Fatalf("CreateFlashcard failed: %v", err)
	}
	s.Flush()

	stored, _ := s.GetFlashcard(card.ID)
	stored.Front.Image = "" // simulate a cleaned record
	s.HydrateFlashcard(context.Background(), stored)
	if !media.IsDataURI(stored.Front.Image) {
		t.Error("hydration did not re-inline the image")
	}
}

func TestDeleteFlashcard_RemovesMedia(t *testing.T) {
	s, _ := newTestStore(t)
	signUp(t, s)
	deck, _ := s.CreateDeck(models.Deck{Title: "To delete"})
	card, _ := s.CreateFlashcard(models.Flashcard{
		DeckID: deck.ID,
		Front:  models.CardSide{Image: inlinePNG()},
	})
	s.Flush()
	stored, _ := s.GetFlashcard(card.ID)
	imageID := stored.Front.ImageID

	res := s.DeleteFlashcard(context.Background(), card.ID)
	if res.Outcome != Deleted {
		t.Fatalf("Outcome = %v; want Deleted", res.Outcome)
	}
	if _, err := s.GetFlashcard(card.ID); !errors.Is(err, ErrNotFound) {
		t.Error("card still readable after delete")
	}
	if ok, _ := s.Media().Exists(context.Background(), models.Image, imageID); ok {
		t.Error("blob survived card delete")
	}
}

func TestDeleteFlashcard_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	res := s.DeleteFlashcard(context.Background(), "nope")
	if res.Outcome != DeleteNotFound {
		t.Errorf("Outcome = %v; want DeleteNotFound", res.Outcome)
	}
}

func TestDeleteDeck_Cascades(t *testing.T) {
	s, _ := newTestStore(t)
	signUp(t, s)
	deck, _ := s.CreateDeck(models.Deck{Title: "Cascade", CoverImage: inlinePNG()})
	theme, _ := s.CreateTheme(models.Theme{DeckID: deck.ID, Title: "Basics"})
	card, _ := s.CreateFlashcard(models.Flashcard{
		DeckID:  deck.ID,
		ThemeID: theme.ID,
		Front:   models.CardSide{Audio: inlineMP3()},
	})
	s.Flush()

	res := s.DeleteDeck(context.Background(), deck.ID)
	if res.Outcome != Deleted {
		t.Fatalf("Outcome = %v (err %v); want Deleted", res.Outcome, res.MediaErr)
	}

	if _, err := s.GetDeck(deck.ID); !errors.Is(err, ErrNotFound) {
		t.Error("deck still readable")
	}
	if _, err := s.GetTheme(theme.ID); !errors.Is(err, ErrNotFound) {
		t.Error("theme survived deck delete")
	}
	if _, err := s.GetFlashcard(card.ID); !errors.Is(err, ErrNotFound) {
		t.Error("flashcard survived deck delete")
	}

	st, err := s.Media().Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.ItemCount != 0 {
		t.Errorf("media items after cascade = %d; want 0", st.ItemCount)
	}
}

func TestCreateDeck_RequiresSession(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateDeck(models.Deck{Title: "No user"}); err != ErrNotAuthenticated {
		t.Errorf("error = %v; want ErrNotAuthenticated", err)
	}
}

func TestCreateDeck_Defaults(t *testing.T) {
	s, _ := newTestStore(t)
	user := signUp(t, s)
	deck, err := s.CreateDeck(models.Deck{})
	if err != nil {
		t.Fatalf("CreateDeck failed: %v", err)
	}
	if deck.Title != "New deck" {
		t.Errorf("Title = %q; want New deck", deck.Title)
	}
	if deck.Tags == nil {
		t.Error("Tags should default to an empty slice")
	}
	if deck.AuthorID != user.ID || deck.AuthorName != user.Username {
		t.Error("author fields not stamped from session")
	}
}

func TestUpdateDeck_ReplacesCover(t *testing.T) {
	s, _ := newTestStore(t)
	signUp(t, s)
	deck, _ := s.CreateDeck(models.Deck{Title: "Covers", CoverImage: inlinePNG()})
	s.Flush()
	before, _ := s.GetDeck(deck.ID)
	if before.CoverImageID == "" {
		t.Fatal("cover was not migrated")
	}

	newCover := media.ToDataURI([]byte("a different cover"), "image/png")
	if _, err := s.UpdateDeck(deck.ID, DeckUpdate{CoverImage: &newCover}); err != nil {
		t.Fatalf("UpdateDeck failed: %v", err)
	}
	s.Flush()

	after, _ := s.GetDeck(deck.ID)
	if after.CoverImageID == "" || after.CoverImageID == before.CoverImageID {
		t.Error("cover reference was not replaced")
	}
	// The old blob is retired.
	if ok, _ := s.Media().Exists(context.Background(), models.Image, before.CoverImageID); ok {
		t.Error("stale cover blob survived replacement")
	}
}

func TestPublishUnpublishDeck(t *testing.T) {
	s, _ := newTestStore(t)
	signUp(t, s)
	deck, _ := s.CreateDeck(models.Deck{Title: "Pub"})

	if err := s.PublishDeck(deck.ID); err != nil {
		t.Fatalf("PublishDeck failed: %v", err)
	}
	got, _ := s.GetDeck(deck.ID)
	if !got.IsPublic || !got.IsPublished {
		t.Error("deck not public after publish")
	}

	if err := s.UnpublishDeck(deck.ID); err != nil {
		t.Fatalf("UnpublishDeck failed: %v", err)
	}
	got, _ = s.GetDeck(deck.ID)
	if got.IsPublic || got.IsPublished {
		t.Error("deck still public after unpublish")
	}
}

func TestStudySessionLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	user := signUp(t, s)
	deck, _ := s.CreateDeck(models.Deck{Title: "Study"})

	session, err := s.CreateStudySession(models.StudySession{DeckID: deck.ID, UserID: user.ID})
	if err != nil {
		t.Fatalf("CreateStudySession failed: %v", err)
	}
	if session.StartTime == 0 {
		t.Error("StartTime not stamped")
	}

	end := session.StartTime + 60000
	reviewed := 12
	correct := 9
	updated, err := s.UpdateStudySession(session.ID, StudySessionUpdate{
		EndTime:        &end,
		CardsReviewed:  &reviewed,
		CorrectAnswers: &correct,
	})
	if err != nil {
		t.Fatalf("UpdateStudySession failed: %v", err)
	}
	if updated.EndTime != end || updated.CardsReviewed != 12 || updated.CorrectAnswers != 9 {
		t.Errorf("unexpected session after update: %+v", updated)
	}

	byDeck, _ := s.SessionsByDeck(deck.ID)
	if len(byDeck) != 1 {
		t.Errorf("SessionsByDeck = %d sessions; want 1", len(byDeck))
	}
	byUser, _ := s.SessionsByUser(user.ID)
	if len(byUser) != 1 {
		t.Errorf("SessionsByUser = %d sessions; want 1", len(byUser))
	}
}

func TestShareCode_ResolveAndExpiry(t *testing.T) {
	s, _ := newTestStore(t)
	signUp(t, s)
	deck, _ := s.CreateDeck(models.Deck{Title: "Shared"})

	code, err := s.CreateShareCode(deck.ID, 7)
	if err != nil {
		t.Fatalf("CreateShareCode failed: %v", err)
	}
	got, err := s.ResolveShareCode(code)
	if err != nil {
		t.Fatalf("ResolveShareCode failed: %v", err)
	}
	if got.ID != deck.ID {
		t.Errorf("resolved deck = %s; want %s", got.ID, deck.ID)
	}

	// A zero-day window expires immediately; the lookup removes the
	// code as a side effect.
	expired, err := s.CreateShareCode(deck.ID, 0)
	if err != nil {
		t.Fatalf("CreateShareCode failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := s.ResolveShareCode(expired); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired resolve = %v; want ErrNotFound", err)
	}
	// Gone for good, not just reported expired.
	if _, err := s.ResolveShareCode(expired); !errors.Is(err, ErrNotFound) {
		t.Errorf("second resolve = %v; want ErrNotFound", err)
	}
}

func TestShareCode_UnknownDeck(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateShareCode("missing", 7); err == nil {
		t.Error("expected error for unknown deck")
	}
}

func TestUpdateProfile_MigratesAvatar(t *testing.T) {
	s, _ := newTestStore(t)
	signUp(t, s)

	updated, err := s.UpdateProfile(models.User{Avatar: inlinePNG(), DisplayName: "Alice"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q; want Alice", updated.DisplayName)
	}
	s.Flush()

	current, _ := s.CurrentUser(context.Background())
	if current.AvatarID == "" {
		t.Fatal("avatar was not migrated")
	}
	if current.Password != "secret" {
		t.Error("password not preserved across profile update")
	}
}
