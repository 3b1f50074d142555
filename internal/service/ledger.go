package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Project-FinanceHUB/financehub/internal/broker"
	"github.com/Project-FinanceHUB/financehub/internal/lifecycle"
	"github.com/Project-FinanceHUB/financehub/internal/models"
)

type LedgerStore interface {
	UpsertByEventID(ctx context.Context, e *models.ManualEntry) (bool, error)
}

// Ledger grava eventos do ciclo de vida como lançamentos acao_sistema.
type Ledger struct {
	store LedgerStore
	log   *slog.Logger
}

func NewLedger(store LedgerStore, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{store: store, log: log.With("cmp", "ledger")}
}

var eventTitles = map[broker.EventType]string{
	broker.EventCreated:       "Solicitação criada",
	broker.EventUpdated:       "Solicitação editada",
	broker.EventStatusChanged: "Status alterado",
	broker.EventViewed:        "Solicitação visualizada",
	broker.EventAnswered:      "Solicitação respondida",
	broker.EventDeleted:       "Solicitação excluída",
}

func EntryFromEvent(ev broker.Event, messageID string) models.ManualEntry {
	titulo, ok := eventTitles[ev.Type]
	if !ok {
		titulo = string(ev.Type)
	}
	if messageID == "" {
		messageID = ev.ID
	}
	desc := ev.Titulo
	if ev.Type == broker.EventStatusChanged {
		desc = fmt.Sprintf("%s: %s", ev.Titulo, lifecycle.Label(models.Status(ev.Status)))
	}
	return models.ManualEntry{
		ID:        "evt-" + messageID,
		Tipo:      models.TipoAcaoSistema,
		Protocolo: ev.Numero,
		Status:    ev.Status,
		Titulo:    titulo,
		Descricao: desc,
		CompanyID: ev.CompanyID,
		EventID:   messageID,
		CriadoEm:  ev.At,
	}
}

// Record é idempotente pelo id da mensagem.
func (l *Ledger) Record(ctx context.Context, ev broker.Event, messageID string) error {
	e := EntryFromEvent(ev, messageID)
	if e.EventID == "" {
		return fmt.Errorf("%w: event without id", broker.ErrPermanent)
	}
	created, err := l.store.UpsertByEventID(ctx, &e)
	if err != nil {
		return fmt.Errorf("record event %s: %w", e.EventID, err)
	}
	if created {
		l.log.Info("ledger_entry_created", "event_id", e.EventID, "type", ev.Type, "protocolo", e.Protocolo)
	} else {
		l.log.Debug("ledger_entry_duplicate", "event_id", e.EventID)
	}
	return nil
}

// RecordNotice grava os avisos em texto de empresa (cadastro, edição, exclusão).
// O id vem do header event_id.
func (l *Ledger) RecordNotice(ctx context.Context, body string, headers amqp.Table, at time.Time) error {
	eventID := headerString(headers, "event_id")
	if eventID == "" {
		return fmt.Errorf("%w: notice without event_id", broker.ErrPermanent)
	}
	if ts, err := time.Parse(time.RFC3339, headerString(headers, "timestamp")); err == nil {
		at = ts
	}
	e := models.ManualEntry{
		ID:        "evt-" + eventID,
		Tipo:      models.TipoAcaoSistema,
		Protocolo: headerString(headers, "cnpj"),
		Status:    headerString(headers, "action"),
		Titulo:    strings.TrimSpace(body),
		Descricao: headerString(headers, "nome"),
		CompanyID: headerString(headers, "company_id"),
		EventID:   eventID,
		CriadoEm:  at,
	}
	created, err := l.store.UpsertByEventID(ctx, &e)
	if err != nil {
		return fmt.Errorf("record notice %s: %w", eventID, err)
	}
	if created {
		l.log.Info("ledger_notice_created", "event_id", eventID, "action", e.Status)
	}
	return nil
}

// Handle despacha uma entrega da fila: JSON é evento de solicitação, o resto
// é aviso de empresa.
func (l *Ledger) Handle(ctx context.Context, d amqp.Delivery) error {
	if d.ContentType == "application/json" {
		ev, err := broker.DecodeEvent(d.Body)
		if err != nil {
			return err
		}
		return l.Record(ctx, ev, d.MessageId)
	}
	at := d.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return l.RecordNotice(ctx, string(d.Body), d.Headers, at)
}

func headerString(h amqp.Table, key string) string {
	if h == nil {
		return ""
	}
	switch v := h[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}
