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
	"time"
)

// CinetPay: checkout heberge. La transaction est creee avec notre
// reference marchande comme transaction_id cote CinetPay; leur token de
// paiement sert d'identifiant externe. Le webhook est authentifie par un
// HMAC-SHA256 du corps brut dans l'en-tete x-token.
type CinetPay struct {
	BaseURL       string
	APIKey        string
	SiteID        string
	WebhookSecret string
	HTTPClient    *http.Client
}

func NewCinetPay(baseURL, apiKey, siteID, webhookSecret string) *CinetPay {
	return &CinetPay{
		BaseURL:       baseURL,
		APIKey:        apiKey,
		SiteID:        siteID,
		WebhookSecret: webhookSecret,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *CinetPay) Name() string { return "cinetpay" }

type cinetpayInitRequest struct {
	APIKey        string `json:"apikey"`
	SiteID        string `json:"site_id"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
	NotifyURL     string `json:"notify_url"`
	ReturnURL     string `json:"return_url"`
	Channels      string `json:"channels"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone_number"`
	CustomerEmail string `json:"customer_email,omitempty"`
	Metadata      string `json:"metadata"`
}

type cinetpayInitResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		PaymentToken string `json:"payment_token"`
		PaymentURL   string `json:"payment_url"`
	} `json:"data"`
}

func (g *CinetPay) CreateTransaction(ctx context.Context, req CreateTxRequest) (CreateTxResponse, error) {
	body, err := json.Marshal(cinetpayInitRequest{
		APIKey:        g.APIKey,
		SiteID:        g.SiteID,
		TransactionID: req.Reference,
		Amount:        req.Montant,
		Currency:      "XOF",
		Description:   req.Description,
		NotifyURL:     req.CallbackURL,
		ReturnURL:     req.ReturnURL,
		Channels:      "ALL",
		CustomerName:  req.CustomerNom,
		CustomerPhone: req.CustomerTelephone,
		CustomerEmail: req.CustomerEmail,
		Metadata:      req.Reference,
	})
	if err != nil {
		return CreateTxResponse{}, err
	}

	var out cinetpayInitResponse
	if err := g.post(ctx, "/v2/payment", body, &out); err != nil {
		return CreateTxResponse{}, err
	}
	if out.Code != "201" {
		return CreateTxResponse{}, fmt.Errorf("cinetpay: %s (%s)", out.Message, out.Code)
	}

	return CreateTxResponse{
		TransactionID: out.Data.PaymentToken,
		RedirectURL:   out.Data.PaymentURL,
	}, nil
}

type cinetpayCheckRequest struct {
	APIKey string `json:"apikey"`
	SiteID string `json:"site_id"`
	Token  string `json:"token"`
}

type cinetpayCheckResponse struct {
	Code string `json:"code"`
	Data struct {
		Status   string      `json:"status"` // ACCEPTED | REFUSED | PENDING
		Amount   json.Number `json:"amount"`
		Metadata string      `json:"metadata"`
	} `json:"data"`
}

func (g *CinetPay) LookupTransaction(ctx context.Context, transactionID string) (LookupResult, error) {
	body, err := json.Marshal(cinetpayCheckRequest{
		APIKey: g.APIKey,
		SiteID: g.SiteID,
		Token:  transactionID,
	})
	if err != nil {
		return LookupResult{}, err
	}

	var out cinetpayCheckResponse
	if err := g.post(ctx, "/v2/payment/check", body, &out); err != nil {
		return LookupResult{}, err
	}

	amount, _ := out.Data.Amount.Int64()
	return LookupResult{
		State:     cinetpayState(out.Data.Status),
		Montant:   amount,
		Reference: out.Data.Metadata,
	}, nil
}

type cinetpayWebhookPayload struct {
	CpmTransID      string      `json:"cpm_trans_id"`
	CpmSiteID       string      `json:"cpm_site_id"`
	CpmAmount       json.Number `json:"cpm_amount"`
	CpmTransStatus  string      `json:"cpm_trans_status"` // ACCEPTED | REFUSED
	CpmCustom       string      `json:"cpm_custom"`       // notre reference (metadata)
	CpmPaymentToken string      `json:"cpm_payment_token"`
}

func (g *CinetPay) VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error) {
	token := headers.Get("x-token")
	if token == "" {
		return WebhookEvent{}, fmt.Errorf("cinetpay: x-token manquant")
	}

	m := hmac.New(sha256.New, []byte(g.WebhookSecret))
	m.Write(body)
	expected := hex.EncodeToString(m.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return WebhookEvent{}, fmt.Errorf("cinetpay: signature invalide")
	}

	var p cinetpayWebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return WebhookEvent{}, fmt.Errorf("cinetpay: payload illisible: %w", err)
	}
	if p.CpmSiteID != g.SiteID {
		return WebhookEvent{}, fmt.Errorf("cinetpay: site_id inattendu")
	}

	amount, _ := p.CpmAmount.Int64()
	externalID := p.CpmPaymentToken
	if externalID == "" {
		externalID = p.CpmTransID
	}

	return WebhookEvent{
		EventID:       p.CpmTransID + ":" + p.CpmTransStatus,
		Type:          "cinetpay." + p.CpmTransStatus,
		State:         cinetpayState(p.CpmTransStatus),
		TransactionID: externalID,
		Reference:     p.CpmCustom,
		Montant:       amount,
	}, nil
}

func cinetpayState(status string) TxState {
	switch status {
	case "ACCEPTED":
		return TxApproved
	case "REFUSED", "CANCELED", "CANCELLED":
		return TxFailed
	default:
		return TxPending
	}
}

func (g *CinetPay) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("cinetpay API error: %d: %s", res.StatusCode, string(b))
	}
	return json.NewDecoder(res.Body).Decode(out)
}
