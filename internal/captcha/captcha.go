package captcha

import (
	"context"
	"strings"
)

// Proof is the client's answer to a challenge. For reCAPTCHA only Token is
// used and holds the widget response.
type Proof struct {
	Token  string
	Answer string
}

// Empty reports whether the proof carries no token.
func (p Proof) Empty() bool {
	return strings.TrimSpace(p.Token) == ""
}

// Verifier validates a proof and consumes it. A proof is accepted at most
// once, even when submitted concurrently.
type Verifier interface {
	Consume(ctx context.Context, proof Proof) error
}
