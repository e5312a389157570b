package paiements

import (
	"context"
	"net/http"
)

// TxState: etat normalise d'une transaction passerelle. Chaque adaptateur
// traduit l'enveloppe de son vendeur vers ces trois valeurs; rien en aval
// ne voit du JSON vendeur.
type TxState string

const (
	TxApproved TxState = "approved"
	TxFailed   TxState = "failed"
	TxPending  TxState = "pending"
)

type CreateTxRequest struct {
	Reference   string // reference marchande, portee en metadata
	Montant     int64  // plus petite unite (FCFA)
	Description string

	CustomerNom       string
	CustomerTelephone string
	CustomerEmail     string

	ReturnURL   string
	CallbackURL string
}

type CreateTxResponse struct {
	TransactionID string
	RedirectURL   string
}

type LookupResult struct {
	State     TxState
	Montant   int64
	Reference string
}

// WebhookEvent: evenement webhook normalise, tous vendeurs confondus.
type WebhookEvent struct {
	EventID       string
	Type          string // type brut du vendeur, pour le journal
	State         TxState
	TransactionID string
	Reference     string
	Montant       int64
}

// Gateway: un adaptateur par vendeur. VerifyAndParseWebhook valide la
// signature avant toute lecture du corps.
type Gateway interface {
	Name() string
	CreateTransaction(ctx context.Context, req CreateTxRequest) (CreateTxResponse, error)
	LookupTransaction(ctx context.Context, transactionID string) (LookupResult, error)
	VerifyAndParseWebhook(headers http.Header, body []byte) (WebhookEvent, error)
}

// Registry resolves the :gateway route param to an adapter.
type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry(gws ...Gateway) *Registry {
	m := make(map[string]Gateway, len(gws))
	for _, g := range gws {
		m[g.Name()] = g
	}
	return &Registry{gateways: m}
}

func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, ErrGatewayInconnue
	}
	return g, nil
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.gateways))
	for n := range r.gateways {
		out = append(out, n)
	}
	return out
}
