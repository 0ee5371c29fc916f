package support

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/plugfox/helpdesk-server/internal/auth"
	"github.com/plugfox/helpdesk-server/internal/captcha"
	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/metrics"
	"github.com/plugfox/helpdesk-server/internal/model"
	"github.com/plugfox/helpdesk-server/internal/storage"
)

// Session is a signed-in user with the access token for further requests.
type Session struct {
	User  *model.User
	Token string
}

// Registration is the input of Register.
type Registration struct {
	Username string
	Password string
	Email    string
	Station  string
	Captcha  captcha.Proof
}

// UserDirectory holds accounts and signs users in.
type UserDirectory struct {
	db      *storage.Storage
	tokens  *auth.Provider
	captcha captcha.Verifier
	metrics metrics.MetricsLogger
	logger  *slog.Logger
}

// Authenticate checks the credentials. A banned user is refused even with
// the right password.
func (d *UserDirectory) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}

	user, err := d.db.UserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		auth.ComparePassword("", password)
		return nil, apperr.InvalidCredentials("invalid username or password")
	}
	if !auth.ComparePassword(user.PasswordHash, password) {
		return nil, apperr.InvalidCredentials("invalid username or password")
	}
	if user.IsBanned {
		return nil, apperr.Forbidden("account is banned")
	}

	user, err = d.db.RecordLogin(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	d.metrics.LogUserEvent(metrics.EventUserLogin, user.ID.ToInt64(), map[string]interface{}{"total_logins": user.TotalLogins})
	return d.session(user)
}

// Register creates a user account. The captcha is consumed before the
// account is written and stays consumed if registration fails afterwards.
func (d *UserDirectory) Register(ctx context.Context, in Registration) (*Session, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Station = strings.TrimSpace(in.Station)

	switch {
	case in.Username == "" || in.Password == "" || in.Email == "" || in.Station == "":
		return nil, apperr.Validation("username, password, email and station are required")
	case tooLong(in.Username, 64):
		return nil, apperr.Validation("username is too long (max 64 characters)")
	case tooLong(in.Station, 255):
		return nil, apperr.Validation("station is too long (max 255 characters)")
	case in.Captcha.Empty():
		return nil, apperr.Validation("captcha is required")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return nil, apperr.Validation("invalid email")
	}

	if err := d.captcha.Consume(ctx, in.Captcha); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Validation("password is too long")
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Station:      in.Station,
		AvatarURL:    model.DefaultAvatarURL,
	}
	if err := d.db.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	d.logger.InfoContext(ctx, "user registered", slog.Int64("user_id", user.ID.ToInt64()), slog.String("username", user.Username))
	d.metrics.LogUserEvent(metrics.EventUserRegister, user.ID.ToInt64(), map[string]interface{}{"count": 1})
	return d.session(user)
}

// Profile returns the caller's account.
func (d *UserDirectory) Profile(ctx context.Context, caller *auth.Identity) (*model.User, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	user, err := d.db.UserByID(ctx, caller.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthenticated("unknown user")
	}
	return user, err
}

func (d *UserDirectory) session(user *model.User) (*Session, error) {
	token, err := d.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}
