// Package session resolves credentials into an explicit Session value that
// callers pass down to ledger and stats operations. There is no ambient
// current-user state; signing out is simply dropping the value.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pockettcg/collector/collector/database/repositories"
)

// ErrInvalidCredentials reports a failed sign-in.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Session identifies a signed-in user.
type Session struct {
	UserID     string
	Username   string
	Role       string
	FriendCode string
}

// Authenticator signs users in against the profiles table.
type Authenticator struct {
	profiles repositories.ProfileRepository
}

func NewAuthenticator(profiles repositories.ProfileRepository) *Authenticator {
	return &Authenticator{profiles: profiles}
}

// SignIn checks the username/password pair against the stored profile and
// returns the session on a match.
func (a *Authenticator) SignIn(ctx context.Context, username, password string) (Session, error) {
	profile, err := a.profiles.FindByCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("sign in: %w", err)
	}

	slog.Info("user signed in", slog.String("username", profile.Username))
	return Session{
		UserID:     profile.ID,
		Username:   profile.Username,
		Role:       profile.Role,
		FriendCode: profile.FriendCode,
	}, nil
}

// Lookup resolves a username to a session without a credential check; the
// offline CLI paths use it to address a local cache by user.
func (a *Authenticator) Lookup(ctx context.Context, username string) (Session, error) {
	profile, err := a.profiles.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return Session{}, fmt.Errorf("no profile named %q", username)
		}
		return Session{}, fmt.Errorf("look up profile: %w", err)
	}
	return Session{
		UserID:     profile.ID,
		Username:   profile.Username,
		Role:       profile.Role,
		FriendCode: profile.FriendCode,
	}, nil
}
