package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

type SMSSender interface {
	SendSMS(to string, message string) error
}

// HTTPSMSProvider: agregateur SMS local, cle bearer. La plupart des
// planteurs n'ont pas d'email, le SMS est le canal principal.
type HTTPSMSProvider struct {
	apiURL string
	apiKey string
	sender string
	client *http.Client
}

func NewHTTPSMSProvider() *HTTPSMSProvider {
	return &HTTPSMSProvider{
		apiURL: os.Getenv("SMS_API_URL"),
		apiKey: os.Getenv("SMS_API_TOKEN"),
		sender: envOr("SMS_SENDER", "AGRICAP"),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *HTTPSMSProvider) SendSMS(to string, message string) error {
	if p.apiURL == "" || p.apiKey == "" {
		return fmt.Errorf("sms provider not configured")
	}

	body, err := json.Marshal(map[string]string{
		"from":    p.sender,
		"to":      to,
		"message": message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", p.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))
	req.Header.Add("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("sms API error: %d", res.StatusCode)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
