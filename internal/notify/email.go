package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

type EmailSender interface {
	SendEmail(to string, toName string, subject string, htmlBody string, textBody string) error
}

// HTTPEmailProvider: API transactionnelle generique (Mailtrap et
// compatibles), cle bearer.
type HTTPEmailProvider struct {
	apiURL string
	apiKey string
	client *http.Client
}

type emailPayload struct {
	From     personInfo   `json:"from"`
	To       []personInfo `json:"to"`
	Subject  string       `json:"subject"`
	Text     string       `json:"text,omitempty"`
	HTML     string       `json:"html,omitempty"`
	Category string       `json:"category,omitempty"`
}

type personInfo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func NewHTTPEmailProvider() *HTTPEmailProvider {
	return &HTTPEmailProvider{
		apiURL: os.Getenv("EMAIL_API_URL"),
		apiKey: os.Getenv("EMAIL_API_TOKEN"),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *HTTPEmailProvider) SendEmail(to string, toName string, subject string, htmlBody string, textBody string) error {
	if m.apiURL == "" || m.apiKey == "" {
		return fmt.Errorf("email provider not configured")
	}

	payload := emailPayload{
		From: personInfo{
			Email: os.Getenv("EMAIL_FROM"),
			Name:  os.Getenv("EMAIL_FROM_NAME"),
		},
		To:       []personInfo{{Email: to, Name: toName}},
		Subject:  subject,
		HTML:     htmlBody,
		Text:     textBody,
		Category: "Transactional",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", m.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", m.apiKey))
	req.Header.Add("Content-Type", "application/json")

	res, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("email API error: %d", res.StatusCode)
	}
	return nil
}
