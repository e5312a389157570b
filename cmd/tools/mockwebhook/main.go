package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Rejoue localement un webhook passerelle signe, pour tester la chaine de
// reconciliation sans toucher a CinetPay ou Wave.

func main() {
	gateway := flag.String("gateway", "cinetpay", "Gateway (cinetpay | wave)")
	url := flag.String("url", "", "Webhook URL (default http://localhost:8080/webhooks/<gateway>)")
	secret := flag.String("secret", "", "Webhook secret (default CINETPAY_SECRET_KEY / WAVE_WEBHOOK_SECRET)")
	reference := flag.String("reference", "ACP-"+randomHex(6), "Merchant reference (ACP-...)")
	transactionID := flag.String("transaction-id", "tx_"+randomHex(8), "Gateway transaction id")
	amount := flag.Int64("amount", 75000, "Amount in FCFA")
	approved := flag.Bool("approved", true, "Send an approved event (false = failed)")
	siteID := flag.String("site-id", os.Getenv("CINETPAY_SITE_ID"), "CinetPay site id")
	dryRun := flag.Bool("dry-run", false, "Only print headers and body, don't send")
	flag.Parse()

	if *url == "" {
		*url = "http://localhost:8080/webhooks/" + *gateway
	}

	var body []byte
	headers := map[string]string{"Content-Type": "application/json"}
	var err error

	switch *gateway {
	case "cinetpay":
		if *secret == "" {
			*secret = os.Getenv("CINETPAY_SECRET_KEY")
		}
		if *secret == "" {
			fmt.Fprintln(os.Stderr, "Error: secret not provided and CINETPAY_SECRET_KEY not set")
			os.Exit(1)
		}
		status := "ACCEPTED"
		if !*approved {
			status = "REFUSED"
		}
		body, err = json.Marshal(map[string]any{
			"cpm_trans_id":      "cp_" + randomHex(8),
			"cpm_site_id":       *siteID,
			"cpm_amount":        *amount,
			"cpm_trans_status":  status,
			"cpm_custom":        *reference,
			"cpm_payment_token": *transactionID,
		})
		if err == nil {
			m := hmac.New(sha256.New, []byte(*secret))
			m.Write(body)
			headers["x-token"] = hex.EncodeToString(m.Sum(nil))
		}

	case "wave":
		if *secret == "" {
			*secret = os.Getenv("WAVE_WEBHOOK_SECRET")
		}
		if *secret == "" {
			fmt.Fprintln(os.Stderr, "Error: secret not provided and WAVE_WEBHOOK_SECRET not set")
			os.Exit(1)
		}
		evType := "checkout.session.completed"
		status := "succeeded"
		if !*approved {
			evType = "checkout.session.payment_failed"
			status = "cancelled"
		}
		body, err = json.Marshal(map[string]any{
			"id":   "EV_" + randomHex(8),
			"type": evType,
			"data": map[string]any{
				"id":               *transactionID,
				"amount":           strconv.FormatInt(*amount, 10),
				"client_reference": *reference,
				"payment_status":   status,
			},
		})
		if err == nil {
			ts := time.Now().Unix()
			m := hmac.New(sha256.New, []byte(*secret))
			m.Write([]byte(strconv.FormatInt(ts, 10)))
			m.Write([]byte("."))
			m.Write(body)
			headers["Wave-Signature"] = fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(m.Sum(nil)))
		}

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown gateway %q\n", *gateway)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	for k, v := range headers {
		fmt.Printf("%s: %s\n", k, v)
	}
	fmt.Printf("Body: %s\n", string(body))

	if *dryRun {
		fmt.Println("\n[DRY RUN] Not sending request")
		return
	}

	fmt.Printf("\nSending to %s...\n", *url)
	req, err := http.NewRequest("POST", *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
