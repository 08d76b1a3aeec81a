package records

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/models"
)

// CreateShareCode issues a time-limited code resolving to a deck. The
// code embeds the deck id, creation time and validity window; the
// expiry date is persisted alongside it.
func (s *Store) CreateShareCode(deckID string, expiryDays int) (string, error) {
	if _, err := s.GetDeck(deckID); err != nil {
		return "", fmt.Errorf("share code for %s: %w", deckID, err)
	}

	code := fmt.Sprintf("share_%s_%d_%d", deckID, now(), expiryDays)
	expiry := now() + int64(expiryDays)*24*int64(time.Hour/time.Millisecond)

	codes := make(map[string]models.ShareCode)
	err := s.kv.Update(ColShareCodes, &codes, func() error {
		codes[code] = models.ShareCode{DeckID: deckID, ExpiryDate: expiry}
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// ResolveShareCode looks a code up and returns the deck it points at.
// An expired code is removed from the store as a side effect of the
// lookup and resolves to ErrNotFound; there is no background sweep.
func (s *Store) ResolveShareCode(code string) (*models.Deck, error) {
	codes := make(map[string]models.ShareCode)
	if _, err := s.kv.Get(ColShareCodes, &codes); err != nil {
		return nil, err
	}
	info, ok := codes[code]
	if !ok {
		return nil, ErrNotFound
	}

	if info.ExpiryDate < now() {
		if err := s.kv.Update(ColShareCodes, &codes, func() error {
			delete(codes, code)
			return nil
		}); err != nil {
			s.log.Warn("failed to drop expired share code",
				zap.String("code", code), zap.Error(err))
		}
		return nil, ErrNotFound
	}

	return s.GetDeck(info.DeckID)
}
