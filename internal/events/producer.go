package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// Producer publie les paiements valides sur Kafka pour les consommateurs
// en aval (comptabilite, reporting). Sans brokers configures, toutes les
// publications sont des no-op.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewProducer(brokers []string, topic string, logger *slog.Logger) (*Producer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(brokers) == 0 {
		return &Producer{topic: topic, logger: logger}, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{producer: p, topic: topic, logger: logger}, nil
}

type PaiementValide struct {
	PaiementID   string    `json:"paiement_id"`
	Reference    string    `json:"reference"`
	PlanteurID   string    `json:"planteur_id"`
	PlantationID string    `json:"plantation_id"`
	Kind         string    `json:"kind"`
	Montant      int64     `json:"montant"`
	PaidAt       time.Time `json:"paid_at"`
}

func (p *Producer) PublishPaiementValide(ev PaiementValide) {
	if p == nil || p.producer == nil {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("event marshal failed", "err", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.Reference),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		p.logger.Error("event publish failed", "reference", ev.Reference, "err", err)
		return
	}
	p.logger.Info("event published", "topic", p.topic, "reference", ev.Reference)
}

func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
