package captcha

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/dchest/captcha"
	"github.com/google/uuid"
	config "github.com/plugfox/helpdesk-server/internal/config"
	apperr "github.com/plugfox/helpdesk-server/internal/errors"
	"github.com/plugfox/helpdesk-server/internal/model"
)

// SessionStore persists issued challenges.
type SessionStore interface {
	CreateCaptchaSession(ctx context.Context, session *model.CaptchaSession) error
	CaptchaSession(ctx context.Context, token string) (*model.CaptchaSession, error)
	MarkCaptchaUsed(ctx context.Context, token string) (bool, error)
	PurgeCaptchaSessions(ctx context.Context, before time.Time) (int64, error)
}

// Challenge is an issued captcha as handed to the client.
type Challenge struct {
	Token     string
	Length    int
	Width     int
	Height    int
	ExpiresAt time.Time
}

// Local issues digit captchas rendered by this service and keeps the
// expected answers in the database.
type Local struct {
	store  SessionStore
	config config.CaptchaConfig
	now    func() time.Time
}

var _ Verifier = (*Local)(nil)

// NewLocal creates the local captcha issuer.
func NewLocal(store SessionStore, conf config.CaptchaConfig) *Local {
	if conf.Length <= 0 {
		conf.Length = captcha.DefaultLen
	}
	if conf.Width <= 0 {
		conf.Width = captcha.StdWidth
	}
	if conf.Height <= 0 {
		conf.Height = captcha.StdHeight
	}
	if conf.Expiration <= 0 {
		conf.Expiration = captcha.Expiration
	}
	return &Local{store: store, config: conf, now: time.Now}
}

// Issue creates a new challenge.
func (l *Local) Issue(ctx context.Context) (*Challenge, error) {
	session := &model.CaptchaSession{
		Token:     uuid.NewString(),
		Digits:    model.DigitsToString(captcha.RandomDigits(l.config.Length)),
		ExpiresAt: l.now().UTC().Add(l.config.Expiration),
	}
	if err := l.store.CreateCaptchaSession(ctx, session); err != nil {
		return nil, err
	}
	return &Challenge{
		Token:     session.Token,
		Length:    l.config.Length,
		Width:     l.config.Width,
		Height:    l.config.Height,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Image writes the PNG of an active challenge. The token seeds the
// distortion, so the same challenge always renders the same picture.
func (l *Local) Image(ctx context.Context, token string, w io.Writer) error {
	session, err := l.active(ctx, token)
	if err != nil {
		return err
	}
	digits := model.StringToDigits(session.Digits)
	_, err = captcha.NewImage(session.Token, digits, l.config.Width, l.config.Height).WriteTo(w)
	return err
}

// Check validates the answer without consuming the challenge.
// A wrong answer burns the challenge.
func (l *Local) Check(ctx context.Context, proof Proof) error {
	session, err := l.active(ctx, proof.Token)
	if err != nil {
		return err
	}
	if !session.Matches(proof.Answer) {
		if _, err := l.store.MarkCaptchaUsed(ctx, session.Token); err != nil {
			return err
		}
		return apperr.Validation("incorrect captcha")
	}
	return nil
}

// Consume validates the answer and marks the challenge used. Only one of
// several concurrent callers with the right answer succeeds.
func (l *Local) Consume(ctx context.Context, proof Proof) error {
	if err := l.Check(ctx, proof); err != nil {
		return err
	}
	won, err := l.store.MarkCaptchaUsed(ctx, proof.Token)
	if err != nil {
		return err
	}
	if !won {
		return apperr.Validation("captcha already used")
	}
	return nil
}

// Sweep deletes challenges which expired before now.
func (l *Local) Sweep(ctx context.Context) (int64, error) {
	return l.store.PurgeCaptchaSessions(ctx, l.now().UTC())
}

func (l *Local) active(ctx context.Context, token string) (*model.CaptchaSession, error) {
	if token == "" {
		return nil, apperr.Validation("captcha token is required")
	}
	session, err := l.store.CaptchaSession(ctx, token)
	if err != nil {
		return nil, mapNotFound(err)
	}
	switch {
	case session.IsUsed:
		return nil, apperr.Validation("captcha already used")
	case session.Expired(l.now().UTC()):
		return nil, apperr.Validation("captcha expired")
	}
	return session, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Validation("invalid captcha")
	}
	return err
}
