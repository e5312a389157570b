package notify

import (
	"fmt"
	"log/slog"
)

// Notifier envoie les confirmations de paiement. Jamais bloquant pour la
// reconciliation: toute erreur est journalisee et oubliee.
type Notifier struct {
	email  EmailSender
	sms    SMSSender
	logger *slog.Logger
}

func NewNotifier(email EmailSender, sms SMSSender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{email: email, sms: sms, logger: logger}
}

type PaymentReceipt struct {
	PlanteurNom string
	Telephone   string
	Email       string
	Reference   string
	Montant     int64
	Kind        string
}

func (n *Notifier) SendPaymentReceipt(r PaymentReceipt) {
	label := "Cotisation"
	if r.Kind == "access_right" {
		label = "Droit d'acces"
	}

	if n.sms != nil && r.Telephone != "" {
		msg := fmt.Sprintf("AgriCapital: paiement recu. %s, %d FCFA, ref %s. Merci.",
			label, r.Montant, r.Reference)
		if err := n.sms.SendSMS(r.Telephone, msg); err != nil {
			n.logger.Warn("sms receipt failed", "reference", r.Reference, "err", err)
		}
	}

	if n.email != nil && r.Email != "" {
		subject := "Confirmation de paiement - AgriCapital"
		text := fmt.Sprintf("Bonjour %s,\n\nVotre paiement (%s) de %d FCFA a bien ete recu.\nReference: %s\n\nL'equipe AgriCapital",
			r.PlanteurNom, label, r.Montant, r.Reference)
		html := `
<html>
  <body style="font-family: sans-serif;">
    <h2>Confirmation de paiement</h2>
    <p>Bonjour ` + r.PlanteurNom + `,</p>
    <p>Votre paiement (<strong>` + label + `</strong>) de <strong>` + fmt.Sprintf("%d", r.Montant) + ` FCFA</strong> a bien ete recu.</p>
    <p><strong>Reference :</strong> ` + r.Reference + `</p>
    <p>L'equipe AgriCapital</p>
  </body>
</html>
`
		if err := n.email.SendEmail(r.Email, r.PlanteurNom, subject, html, text); err != nil {
			n.logger.Warn("email receipt failed", "reference", r.Reference, "err", err)
		}
	}
}
