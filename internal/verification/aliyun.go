package verification

import (
	"context"
	"fmt"
	"strings"

	captcha "github.com/alibabacloud-go/captcha-20230305/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"
	credential "github.com/aliyun/credentials-go/credentials"
	"github.com/rs/zerolog/log"
)

type intelligentCaptchaAPI interface {
	VerifyIntelligentCaptcha(*captcha.VerifyIntelligentCaptchaRequest) (*captcha.VerifyIntelligentCaptchaResponse, error)
}

// AliyunVerifier validates Alibaba Cloud intelligent captcha tokens.
// Credentials come from the default chain (environment, profile, RAM role).
type AliyunVerifier struct {
	api     intelligentCaptchaAPI
	sceneID string
}

// NewAliyunVerifier creates a client for endpoint bound to sceneID.
func NewAliyunVerifier(endpoint, sceneID string) (*AliyunVerifier, error) {
	cred, err := credential.NewCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("aliyun captcha: credential: %w", err)
	}
	client, err := captcha.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String(endpoint),
	})
	if err != nil {
		return nil, fmt.Errorf("aliyun captcha: client: %w", err)
	}
	return &AliyunVerifier{api: client, sceneID: sceneID}, nil
}

// Verify implements Verifier. remoteIP is only logged.
func (v *AliyunVerifier) Verify(_ context.Context, response, remoteIP string) (bool, error) {
	if strings.TrimSpace(response) == "" {
		return false, nil
	}
	resp, err := v.api.VerifyIntelligentCaptcha(&captcha.VerifyIntelligentCaptchaRequest{
		CaptchaVerifyParam: tea.String(response),
		SceneId:            tea.String(v.sceneID),
	})
	if err != nil {
		return false, fmt.Errorf("aliyun captcha: verify: %w", err)
	}
	if resp == nil || resp.Body == nil {
		return false, fmt.Errorf("aliyun captcha: empty response")
	}

	body := resp.Body
	if body.Result != nil && tea.BoolValue(body.Result.VerifyResult) {
		return true, nil
	}
	if code := tea.StringValue(body.Code); code != "" && code != "200" {
		log.Warn().
			Str("code", code).
			Str("message", tea.StringValue(body.Message)).
			Str("scene", v.sceneID).
			Str("remote_ip", remoteIP).
			Msg("aliyun captcha reported an error")
	}
	return false, nil
}
