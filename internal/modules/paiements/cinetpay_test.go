package paiements

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func cinetpaySign(secret string, body []byte) string {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

func TestCinetPayVerifyAndParseWebhook(t *testing.T) {
	g := NewCinetPay("https://api.example", "key", "site42", "s3cret")

	body := []byte(`{
		"cpm_trans_id": "cp_77",
		"cpm_site_id": "site42",
		"cpm_amount": 150000,
		"cpm_trans_status": "ACCEPTED",
		"cpm_custom": "ACP-1-abc",
		"cpm_payment_token": "tok_77"
	}`)

	h := http.Header{}
	h.Set("x-token", cinetpaySign("s3cret", body))

	ev, err := g.VerifyAndParseWebhook(h, body)
	if err != nil {
		t.Fatalf("VerifyAndParseWebhook: %v", err)
	}
	if ev.State != TxApproved {
		t.Errorf("state = %v, want approved", ev.State)
	}
	if ev.Reference != "ACP-1-abc" {
		t.Errorf("reference = %q", ev.Reference)
	}
	if ev.Montant != 150000 {
		t.Errorf("montant = %d", ev.Montant)
	}
	if ev.TransactionID != "tok_77" {
		t.Errorf("transaction_id = %q", ev.TransactionID)
	}
	if ev.EventID != "cp_77:ACCEPTED" {
		t.Errorf("event_id = %q", ev.EventID)
	}
}

func TestCinetPayWebhookRejectsBadSignature(t *testing.T) {
	g := NewCinetPay("https://api.example", "key", "site42", "s3cret")
	body := []byte(`{"cpm_trans_id":"cp_1","cpm_site_id":"site42","cpm_trans_status":"ACCEPTED"}`)

	cases := map[string]http.Header{
		"missing": {},
		"wrong":   {"X-Token": []string{"deadbeef"}},
		"other secret": {"X-Token": []string{
			cinetpaySign("autre", body),
		}},
	}
	for name, h := range cases {
		if _, err := g.VerifyAndParseWebhook(h, body); err == nil {
			t.Errorf("%s signature accepted", name)
		}
	}
}

func TestCinetPayWebhookRejectsForeignSite(t *testing.T) {
	g := NewCinetPay("https://api.example", "key", "site42", "s3cret")
	body := []byte(`{"cpm_trans_id":"cp_1","cpm_site_id":"site99","cpm_trans_status":"ACCEPTED"}`)

	h := http.Header{}
	h.Set("x-token", cinetpaySign("s3cret", body))

	if _, err := g.VerifyAndParseWebhook(h, body); err == nil {
		t.Fatal("foreign site_id accepted")
	}
}

func TestCinetPayRefusedMapsToFailed(t *testing.T) {
	g := NewCinetPay("https://api.example", "key", "site42", "s3cret")
	body := []byte(`{"cpm_trans_id":"cp_1","cpm_site_id":"site42","cpm_trans_status":"REFUSED","cpm_custom":"ACP-1"}`)

	h := http.Header{}
	h.Set("x-token", cinetpaySign("s3cret", body))

	ev, err := g.VerifyAndParseWebhook(h, body)
	if err != nil {
		t.Fatalf("VerifyAndParseWebhook: %v", err)
	}
	if ev.State != TxFailed {
		t.Errorf("state = %v, want failed", ev.State)
	}
}

func TestCinetPayCreateTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/payment" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req["apikey"] != "key" || req["site_id"] != "site42" {
			t.Errorf("credentials not forwarded: %v", req)
		}
		if req["transaction_id"] != "ACP-1-abc" || req["metadata"] != "ACP-1-abc" {
			t.Errorf("reference not carried: %v", req)
		}
		if req["currency"] != "XOF" {
			t.Errorf("currency = %v", req["currency"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":    "201",
			"message": "CREATED",
			"data": map[string]any{
				"payment_token": "tok_1",
				"payment_url":   "https://checkout.example/tok_1",
			},
		})
	}))
	defer srv.Close()

	g := NewCinetPay(srv.URL, "key", "site42", "s3cret")
	res, err := g.CreateTransaction(context.Background(), CreateTxRequest{
		Reference: "ACP-1-abc",
		Montant:   150000,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if res.TransactionID != "tok_1" || res.RedirectURL != "https://checkout.example/tok_1" {
		t.Errorf("got %+v", res)
	}
}

func TestCinetPayCreateTransactionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"code": "608", "message": "MINIMUM_REQUIRED_FIELDS"})
	}))
	defer srv.Close()

	g := NewCinetPay(srv.URL, "key", "site42", "s3cret")
	if _, err := g.CreateTransaction(context.Background(), CreateTxRequest{Reference: "ACP-1", Montant: 100}); err == nil {
		t.Fatal("API error code not surfaced")
	}
}

func TestCinetPayLookupTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/payment/check" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": "00",
			"data": map[string]any{
				"status":   "ACCEPTED",
				"amount":   150000,
				"metadata": "ACP-1-abc",
			},
		})
	}))
	defer srv.Close()

	g := NewCinetPay(srv.URL, "key", "site42", "s3cret")
	res, err := g.LookupTransaction(context.Background(), "tok_1")
	if err != nil {
		t.Fatalf("LookupTransaction: %v", err)
	}
	if res.State != TxApproved || res.Montant != 150000 || res.Reference != "ACP-1-abc" {
		t.Errorf("got %+v", res)
	}
}
