package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// RecaptchaVerifier calls the reCAPTCHA siteverify endpoint.
type RecaptchaVerifier struct {
	HTTP   *http.Client
	URL    string
	Secret string
}

// NewRecaptchaVerifier returns a verifier with a 10s HTTP timeout.
func NewRecaptchaVerifier(verifyURL, secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		HTTP:   &http.Client{Timeout: 10 * time.Second},
		URL:    verifyURL,
		Secret: secret,
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify implements Verifier. A blank response is rejected without a call.
func (v *RecaptchaVerifier) Verify(ctx context.Context, response, remoteIP string) (bool, error) {
	if strings.TrimSpace(response) == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", v.Secret)
	form.Set("response", response)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("recaptcha: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	hc := v.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return false, fmt.Errorf("recaptcha: verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("recaptcha: unexpected status %d", resp.StatusCode)
	}
	var out siteverifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return false, fmt.Errorf("recaptcha: decode: %w", err)
	}
	if !out.Success {
		log.Debug().Strs("error_codes", out.ErrorCodes).Msg("recaptcha rejected challenge")
	}
	return out.Success, nil
}
