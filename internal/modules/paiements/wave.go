package paiements

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Wave: sessions de checkout, cle bearer. Le webhook est signe dans
// Wave-Signature sous la forme "t=<ts>,v1=<hmac(ts '.' corps)>".
type Wave struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	HTTPClient    *http.Client

	// Tolerance sur l'horodatage de signature, contre le rejeu.
	Tolerance time.Duration
}

func NewWave(baseURL, apiKey, webhookSecret string) *Wave {
	return &Wave{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		WebhookSecret: webhookSecret,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
		Tolerance:     5 * time.Minute,
	}
}

func (g *Wave) Name() string { return "wave" }

type waveSessionRequest struct {
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	SuccessURL      string `json:"success_url"`
	ErrorURL        string `json:"error_url"`
	ClientReference string `json:"client_reference"`
}

type waveSession struct {
	ID              string `json:"id"`
	LaunchURL       string `json:"wave_launch_url"`
	PaymentStatus   string `json:"payment_status"` // processing | succeeded | cancelled
	Amount          string `json:"amount"`
	ClientReference string `json:"client_reference"`
}

func (g *Wave) CreateTransaction(ctx context.Context, req CreateTxRequest) (CreateTxResponse, error) {
	body, err := json.Marshal(waveSessionRequest{
		Amount:          strconv.FormatInt(req.Montant, 10),
		Currency:        "XOF",
		SuccessURL:      req.ReturnURL,
		ErrorURL:        req.ReturnURL,
		ClientReference: req.Reference,
	})
	if err != nil {
		return CreateTxResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.BaseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return CreateTxResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := g.HTTPClient.Do(httpReq)
	if err != nil {
		return CreateTxResponse{}, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return CreateTxResponse{}, fmt.Errorf("wave API error: %d: %s", res.StatusCode, string(b))
	}

	var sess waveSession
	if err := json.NewDecoder(res.Body).Decode(&sess); err != nil {
		return CreateTxResponse{}, err
	}

	return CreateTxResponse{TransactionID: sess.ID, RedirectURL: sess.LaunchURL}, nil
}

func (g *Wave) LookupTransaction(ctx context.Context, transactionID string) (LookupResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.BaseURL+"/v1/checkout/sessions/"+transactionID, nil)
	if err != nil {
		return LookupResult{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.APIKey)

	res, err := g.HTTPClient.Do(httpReq)
	if err != nil {
		return LookupResult{}, err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return LookupResult{}, fmt.Errorf("wave API error: %d: %s", res.StatusCode, string(b))
	}

	var sess waveSession
	if err := json.NewDecoder(res.Body).Decode(&sess); err != nil {
		return LookupResult{}, err
	}

	amount, _ := strconv.ParseInt(sess.Amount, 10, 64)
	return LookupResult{
		State:     waveState(sess.PaymentStatus),
		Montant:   amount,
		Reference: sess.ClientReference,
	}, nil
}

type waveWebhookPayload struct {
	ID   string `json:"id"`   // EV_...
	Type string `json:"type"` // checkout.session.completed | checkout.session.payment_failed
	Data struct {
		ID              string `json:"id"`
		Amount          string `json:"amount"`
		ClientReference string `json:"client_reference"`
		PaymentStatus   string `json:"payment_status"`
	} `json:"data"`
}

func (g *Wave) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	sigHeader := headers.Get("Wave-Signature")
	if sigHeader == "" {
		return WebhookEvent{}, fmt.Errorf("wave: Wave-Signature manquant")
	}

	ts, sig, err := parseWaveSignature(sigHeader)
	if err != nil {
		return WebhookEvent{}, err
	}
	if g.Tolerance > 0 {
		age := time.Since(time.Unix(ts, 0))
		if age > g.Tolerance || age < -g.Tolerance {
			return WebhookEvent{}, fmt.Errorf("wave: horodatage hors tolerance")
		}
	}

	m := hmac.New(sha256.New, []byte(g.WebhookSecret))
	m.Write([]byte(strconv.FormatInt(ts, 10)))
	m.Write([]byte("."))
	m.Write(body)
	expected := hex.EncodeToString(m.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return WebhookEvent{}, fmt.Errorf("wave: signature invalide")
	}

	var p waveWebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return WebhookEvent{}, fmt.Errorf("wave: payload illisible: %w", err)
	}

	amount, _ := strconv.ParseInt(p.Data.Amount, 10, 64)

	state := TxPending
	switch p.Type {
	case "checkout.session.completed":
		state = waveState(p.Data.PaymentStatus)
	case "checkout.session.payment_failed":
		state = TxFailed
	}

	return WebhookEvent{
		EventID:       p.ID,
		Type:          p.Type,
		State:         state,
		TransactionID: p.Data.ID,
		Reference:     p.Data.ClientReference,
		Montant:       amount,
	}, nil
}

func waveState(status string) TxState {
	switch status {
	case "succeeded":
		return TxApproved
	case "cancelled", "canceled", "failed":
		return TxFailed
	default:
		return TxPending
	}
}

func parseWaveSignature(header string) (int64, string, error) {
	var ts int64
	var sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("wave: horodatage illisible")
			}
			ts = n
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return 0, "", fmt.Errorf("wave: signature incomplete")
	}
	return ts, sig, nil
}
