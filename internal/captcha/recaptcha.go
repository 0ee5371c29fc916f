package captcha

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	apperr "github.com/plugfox/helpdesk-server/internal/errors"
)

const siteVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type siteVerifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Recaptcha verifies Google reCAPTCHA v2 responses. Google rejects a
// response token the second time it is verified.
type Recaptcha struct {
	client   *resty.Client
	secret   string
	endpoint string
}

var _ Verifier = (*Recaptcha)(nil)

// NewRecaptcha creates the verifier. httpClient may route through a proxy.
func NewRecaptcha(secret string, httpClient *http.Client) *Recaptcha {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Recaptcha{
		client:   resty.NewWithClient(httpClient),
		secret:   secret,
		endpoint: siteVerifyURL,
	}
}

func (r *Recaptcha) Consume(ctx context.Context, proof Proof) error {
	token := strings.TrimSpace(proof.Token)
	if token == "" {
		return apperr.Validation("captcha token is required")
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"secret":   r.secret,
			"response": token,
		}).
		SetResult(&siteVerifyResponse{}).
		Post(r.endpoint)
	if err != nil {
		return fmt.Errorf("sending recaptcha request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("recaptcha verify http %d", resp.StatusCode())
	}

	out := resp.Result().(*siteVerifyResponse)
	if !out.Success {
		if len(out.ErrorCodes) > 0 {
			return apperr.Validation("captcha rejected: %s", strings.Join(out.ErrorCodes, ","))
		}
		return apperr.Validation("captcha rejected")
	}
	return nil
}
