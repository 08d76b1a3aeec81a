package records

import (
	"context"

	"go.uber.org/zap"

	"github.com/edubreuil/flashkeeper/internal/media"
	"github.com/edubreuil/flashkeeper/internal/models"
)

// defaultSettings are applied to accounts that predate the settings
// fields.
func defaultSettings() *models.Settings {
	return &models.Settings{Notifications: true, SoundEffects: true}
}

// Register creates a new account and opens a session for it. The
// password is stored as provided; hardening it is out of scope for a
// local single-user store.
func (s *Store) Register(username, email, password string) (*models.User, error) {
	user := models.User{
		ID:        newID(),
		Username:  username,
		Email:     email,
		Password:  password,
		CreatedAt: now(),
		Settings:  defaultSettings(),
	}
	if err := s.putUser(user); err != nil {
		return nil, err
	}
	if err := s.kv.Set(keySession, user.ID); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login opens a session for the account matching email and password.
func (s *Store) Login(email, password string) (*models.User, error) {
	users, err := s.userMap()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email && u.Password == password {
			if err := s.kv.Set(keySession, u.ID); err != nil {
				return nil, err
			}
			return &u, nil
		}
	}
	return nil, ErrNotAuthenticated
}

// Logout clears the active session.
func (s *Store) Logout() error {
	return s.kv.Delete(keySession)
}

// HasSession reports whether a session points at an existing account.
func (s *Store) HasSession() bool {
	_, err := s.CurrentUser(context.Background())
	return err == nil
}

// CurrentUser returns the account the active session points at,
// back-filling defaults for fields older records lack. The avatar
// stays a reference; HydrateUser re-inlines it.
func (s *Store) CurrentUser(ctx context.Context) (*models.User, error) {
	var sessionID string
	ok, err := s.kv.Get(keySession, &sessionID)
	if err != nil || !ok || sessionID == "" {
		return nil, ErrNotAuthenticated
	}
	users, err := s.userMap()
	if err != nil {
		return nil, err
	}
	user, ok := users[sessionID]
	if !ok {
		return nil, ErrNotAuthenticated
	}
	if user.Settings == nil {
		user.Settings = defaultSettings()
	}
	return &user, nil
}

// CurrentUserID returns the id of the signed-in user, or an empty
// string when no session is active. Satisfies the HTTP auth
// middleware's Authenticator.
func (s *Store) CurrentUserID(ctx context.Context) string {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return ""
	}
	return user.ID
}

// GetUser returns the stored form of an account by id.
func (s *Store) GetUser(id string) (*models.User, error) {
	users, err := s.userMap()
	if err != nil {
		return nil, err
	}
	user, ok := users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

// HydrateUser re-inlines the avatar for display.
func (s *Store) HydrateUser(ctx context.Context, user *models.User) {
	if user.AvatarID == "" {
		return
	}
	uri, err := s.loadDataURI(ctx, models.Image, user.AvatarID)
	if err != nil {
		if !mediaMissing(err) {
			s.log.Warn("failed to hydrate avatar",
				zap.String("userId", user.ID), zap.Error(err))
		}
		return
	}
	user.Avatar = uri
}

// UpdateProfile merges the mutable profile fields of upd over the
// current user, preserving the password and creation time. A new
// inline avatar replaces the stored blob on the job group.
func (s *Store) UpdateProfile(upd models.User) (*models.User, error) {
	user, err := s.CurrentUser(context.Background())
	if err != nil {
		return nil, err
	}
	user.Username = orDefault(upd.Username, user.Username)
	user.Email = orDefault(upd.Email, user.Email)
	user.Bio = upd.Bio
	user.DisplayName = upd.DisplayName
	if upd.Settings != nil {
		user.Settings = upd.Settings
	}

	newAvatar := media.IsDataURI(upd.Avatar) && upd.Avatar != user.Avatar
	if newAvatar {
		user.Avatar = upd.Avatar
	}

	if err := s.putUser(*user); err != nil {
		return nil, err
	}
	if newAvatar {
		id := user.ID
		s.spawn(func(ctx context.Context) { s.migrateAvatar(ctx, id) })
	}
	return user, nil
}

// migrateAvatar moves an inline avatar into the media store, retiring
// the previous blob. Run on the job group.
func (s *Store) migrateAvatar(ctx context.Context, id string) {
	user, err := s.GetUser(id)
	if err != nil || !media.IsDataURI(user.Avatar) {
		return
	}
	if user.AvatarID != "" {
		if err := s.deleteCover(ctx, user.AvatarID); err != nil {
			s.log.Warn("stale avatar blob left behind",
				zap.String("userId", id), zap.Error(err))
		}
	}
	avatarID, err := s.storeInline(ctx, models.Image, user.Avatar)
	if err != nil {
		s.log.Error("avatar migration failed",
			zap.String("userId", id), zap.Error(err))
		return
	}
	user.AvatarID = avatarID
	if err := s.putUser(*user); err != nil {
		s.log.Error("failed to persist migrated avatar",
			zap.String("userId", id), zap.Error(err))
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (s *Store) userMap() (map[string]models.User, error) {
	users := make(map[string]models.User)
	if _, err := s.kv.Get(ColUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) putUser(user models.User) error {
	users := make(map[string]models.User)
	return s.kv.Update(ColUsers, &users, func() error {
		users[user.ID] = user
		return nil
	})
}
