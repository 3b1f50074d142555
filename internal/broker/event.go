package broker

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventCreated       EventType = "solicitacao.created"
	EventUpdated       EventType = "solicitacao.updated"
	EventStatusChanged EventType = "solicitacao.status_changed"
	EventViewed        EventType = "solicitacao.viewed"
	EventAnswered      EventType = "solicitacao.answered"
	EventDeleted       EventType = "solicitacao.deleted"
)

// Event descreve uma mudança confirmada (já persistida) numa solicitação.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	SolicitacaoID string    `json:"solicitacaoId"`
	Numero        string    `json:"numero"`
	Titulo        string    `json:"titulo"`
	Status        string    `json:"status"`
	CompanyID     string    `json:"companyId,omitempty"`
	ActorID       string    `json:"actorId,omitempty"`
	At            time.Time `json:"at"`
}

func DecodeEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: decode event: %v", ErrPermanent, err)
	}
	if ev.Type == "" || ev.SolicitacaoID == "" {
		return Event{}, fmt.Errorf("%w: decode event: missing type or solicitacaoId", ErrPermanent)
	}
	return ev, nil
}
