// Package models defines the core data structures for the flashcard
// store: users, decks, themes, flashcards, study sessions, share codes
// and the documents produced by the export/import codec.
package models

// Settings holds per-user interface preferences.
type Settings struct {
	DarkMode      bool `json:"darkMode"`
	Notifications bool `json:"notifications"`
	SoundEffects  bool `json:"soundEffects"`
}

// User represents an account stored locally. The password is kept in
// plain text; the store is a single-user local application and
// credential hardening is explicitly out of scope.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Username is the login name chosen by the user.
	Username string `json:"username"`
	// Email is the address used to log in.
	Email    string `json:"email"`
	Password string `json:"password"`
	// CreatedAt is a unix-millisecond timestamp.
	CreatedAt int64 `json:"createdAt"`
	// Avatar holds the avatar as a data URI for display.
	Avatar string `json:"avatar,omitempty"`
	// AvatarID references the avatar blob in the media store.
	AvatarID    string    `json:"avatarId,omitempty"`
	Bio         string    `json:"bio"`
	DisplayName string    `json:"displayName"`
	Settings    *Settings `json:"settings,omitempty"`
}

// Deck is a collection of themes and flashcards owned by one user.
type Deck struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// CoverImage holds the cover as a data URI for display.
	CoverImage string `json:"coverImage,omitempty"`
	// CoverImageID references the cover blob in the media store.
	CoverImageID string   `json:"coverImageId,omitempty"`
	Tags         []string `json:"tags"`
	AuthorID     string   `json:"authorId"`
	AuthorName   string   `json:"authorName"`
	IsPublic     bool     `json:"isPublic"`
	CreatedAt    int64    `json:"createdAt"`
	UpdatedAt    int64    `json:"updatedAt"`
	// IsShared marks a deck imported from a share export.
	IsShared bool `json:"isShared,omitempty"`
	// OriginalID is the id of the source deck this one was imported from.
	OriginalID  string `json:"originalId,omitempty"`
	IsPublished bool   `json:"isPublished,omitempty"`
}

// Theme groups flashcards inside a deck. The DeckID foreign key is not
// enforced; deleting a deck out of order can orphan its themes.
type Theme struct {
	ID           string `json:"id"`
	DeckID       string `json:"deckId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	CoverImage   string `json:"coverImage,omitempty"`
	CoverImageID string `json:"coverImageId,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// CardSide is one face of a flashcard. Image and ImageID are mutually
// exclusive in steady state: inline data URIs are migrated to the media
// store, after which only the id remains. Both may be populated
// transiently while a migration is in flight. Audio works the same way.
type CardSide struct {
	Text           string `json:"text"`
	Image          string `json:"image,omitempty"`
	ImageID        string `json:"imageId,omitempty"`
	Audio          string `json:"audio,omitempty"`
	AudioID        string `json:"audioId,omitempty"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

// Difficulty is the review difficulty tier of a flashcard.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Flashcard belongs to one deck and optionally one theme.
type Flashcard struct {
	ID           string     `json:"id"`
	DeckID       string     `json:"deckId"`
	ThemeID      string     `json:"themeId,omitempty"`
	Front        CardSide   `json:"front"`
	Back         CardSide   `json:"back"`
	CreatedAt    int64      `json:"createdAt"`
	UpdatedAt    int64      `json:"updatedAt"`
	LastReviewed int64      `json:"lastReviewed,omitempty"`
	ReviewCount  int        `json:"reviewCount"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`
}

// StudySession records one study run of a deck by a user.
type StudySession struct {
	ID               string `json:"id"`
	DeckID           string `json:"deckId"`
	UserID           string `json:"userId"`
	StartTime        int64  `json:"startTime"`
	EndTime          int64  `json:"endTime,omitempty"`
	CardsReviewed    int    `json:"cardsReviewed"`
	CorrectAnswers   int    `json:"correctAnswers"`
	IncorrectAnswers int    `json:"incorrectAnswers"`
}

// ShareCode maps an opaque code to a deck with an expiry. Expiry is
// enforced lazily on resolution, not by a background sweep.
type ShareCode struct {
	DeckID     string `json:"deckId"`
	ExpiryDate int64  `json:"expiryDate"`
}

// MediaKind identifies the type of a stored media blob.
type MediaKind string

const (
	// Image blobs are keyed with the "img_" prefix.
	Image MediaKind = "image"
	// Audio blobs are keyed with the "aud_" prefix.
	Audio MediaKind = "audio"
)

// ExportDocument is the whole-dataset snapshot produced by the codec.
// Records keep their media references; blob bytes are not embedded.
type ExportDocument struct {
	Version    string                  `json:"version"`
	Timestamp  int64                   `json:"timestamp"`
	User       map[string]User         `json:"user"`
	Decks      map[string]Deck         `json:"decks"`
	Flashcards map[string]Flashcard    `json:"flashcards"`
	Themes     map[string]Theme        `json:"themes"`
	Sessions   map[string]StudySession `json:"studySessions"`
	ShareCodes map[string]ShareCode    `json:"shareCodes"`
	// MediaIDs is the de-duplicated set of every media id referenced
	// by an exported record, for completeness auditing.
	MediaIDs []string `json:"mediaIds"`
}

// SharedDeckExport is a single-deck snapshot meant to travel between
// installations. All ids are freshly generated so importing never
// collides with the source; OriginalID keeps the source deck id.
type SharedDeckExport struct {
	ID          string      `json:"id"`
	OriginalID  string      `json:"originalId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Themes      []Theme     `json:"themes"`
	Flashcards  []Flashcard `json:"flashcards"`
	CreatedAt   int64       `json:"createdAt"`
	UpdatedAt   int64       `json:"updatedAt"`
}
