// Package verification checks the human-verification challenge attached to
// a watch submission.
//
// A Verifier returns (false, nil) when the provider says the challenge was
// not solved and a non-nil error only when the provider could not be asked.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/serverwatch/availability-watch/internal/config"
)

// ErrUnsupportedProvider is returned by New for an unknown CAPTCHA_PROVIDER.
var ErrUnsupportedProvider = errors.New("unsupported captcha provider")

// Verifier validates a client-supplied challenge response.
type Verifier interface {
	Verify(ctx context.Context, response, remoteIP string) (bool, error)
}

// New builds the Verifier selected by cfg.Provider.
func New(cfg config.CaptchaConfig) (Verifier, error) {
	switch strings.ToLower(cfg.Provider) {
	case "recaptcha":
		return NewRecaptchaVerifier(cfg.RecaptchaURL, cfg.RecaptchaSec), nil
	case "aliyun":
		return NewAliyunVerifier(cfg.AliyunEndpoint, cfg.AliyunSceneID)
	case "none", "":
		return MockVerifier{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}

// MockVerifier accepts any non-blank response. It backs CAPTCHA_PROVIDER=none
// for local development.
type MockVerifier struct{}

// Verify implements Verifier.
func (MockVerifier) Verify(_ context.Context, response, _ string) (bool, error) {
	return strings.TrimSpace(response) != "", nil
}
