package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
)

// CaptchaVerifier checks a client-supplied CAPTCHA token against an
// external provider.
type CaptchaVerifier interface {
	Verify(provider, secret, token string) (bool, error)
}

var captchaVerifyURLs = map[string]string{
	"turnstile": "https://challenges.cloudflare.com/turnstile/v0/siteverify",
	"hcaptcha":  "https://api.hcaptcha.com/siteverify",
}

type CaptchaService struct {
	Client *http.Client
}

func NewCaptchaService() *CaptchaService {
	return &CaptchaService{
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify POSTs the token to the provider's siteverify endpoint. Both
// supported providers share the same request shape: form-encoded
// secret/response, JSON success flag back.
func (s *CaptchaService) Verify(provider, secret, token string) (bool, error) {
	endpoint, ok := captchaVerifyURLs[provider]
	if !ok {
		return false, fmt.Errorf("unknown captcha provider: %s", provider)
	}

	form := url.Values{}
	form.Set("secret", secret)
	form.Set("response", token)

	resp, err := s.Client.PostForm(endpoint, form)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var result struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, err
	}

	if !result.Success && len(result.ErrorCodes) > 0 {
		log.WithFields(log.Fields{
			"provider":    provider,
			"error_codes": result.ErrorCodes,
		}).Info("captcha verification rejected")
	}

	return result.Success, nil
}
