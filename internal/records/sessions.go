package records

import (
	"github.com/edubreuil/flashkeeper/internal/models"
)

// StudySessionUpdate carries a partial study session update.
type StudySessionUpdate struct {
	EndTime          *int64
	CardsReviewed    *int
	CorrectAnswers   *int
	IncorrectAnswers *int
}

// CreateStudySession opens a new study run for a deck and user,
// stamped with the current time.
func (s *Store) CreateStudySession(in models.StudySession) (*models.StudySession, error) {
	session := models.StudySession{
		ID:               newID(),
		DeckID:           in.DeckID,
		UserID:           in.UserID,
		StartTime:        now(),
		CardsReviewed:    in.CardsReviewed,
		CorrectAnswers:   in.CorrectAnswers,
		IncorrectAnswers: in.IncorrectAnswers,
	}
	if err := s.putSession(session); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateStudySession merges upd over the stored session.
func (s *Store) UpdateStudySession(id string, upd StudySessionUpdate) (*models.StudySession, error) {
	sessions, err := s.sessionMap()
	if err != nil {
		return nil, err
	}
	session, ok := sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.EndTime != nil {
		session.EndTime = *upd.EndTime
	}
	if upd.CardsReviewed != nil {
		session.CardsReviewed = *upd.CardsReviewed
	}
	if upd.CorrectAnswers != nil {
		session.CorrectAnswers = *upd.CorrectAnswers
	}
	if upd.IncorrectAnswers != nil {
		session.IncorrectAnswers = *upd.IncorrectAnswers
	}
	if err := s.putSession(session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionsByDeck returns every study session recorded for a deck.
func (s *Store) SessionsByDeck(deckID string) ([]models.StudySession, error) {
	return s.filterSessions(func(ss models.StudySession) bool { return ss.DeckID == deckID })
}

// SessionsByUser returns every study session recorded for a user.
func (s *Store) SessionsByUser(userID string) ([]models.StudySession, error) {
	return s.filterSessions(func(ss models.StudySession) bool { return ss.UserID == userID })
}

func (s *Store) filterSessions(keep func(models.StudySession) bool) ([]models.StudySession, error) {
	sessions, err := s.sessionMap()
	if err != nil {
		return nil, err
	}
	var out []models.StudySession
	for _, ss := range sessions {
		if keep(ss) {
			out = append(out, ss)
		}
	}
	return out, nil
}

func (s *Store) sessionMap() (map[string]models.StudySession, error) {
	sessions := make(map[string]models.StudySession)
	if _, err := s.kv.Get(ColSessions, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Store) putSession(session models.StudySession) error {
	sessions := make(map[string]models.StudySession)
	return s.kv.Update(ColSessions, &sessions, func() error {
		sessions[session.ID] = session
		return nil
	})
}
