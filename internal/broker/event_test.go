package broker

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDecodeEvent(t *testing.T) {
	in := Event{ID: "e1", Type: EventStatusChanged, SolicitacaoID: "s1", Numero: "SOL-1", Status: "concluido", At: time.Unix(100, 0).UTC()}
	body, _ := json.Marshal(in)

	got, err := DecodeEvent(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != EventStatusChanged || got.Numero != "SOL-1" || !got.At.Equal(in.At) {
		t.Fatalf("mismatch: %#v", got)
	}

	for _, bad := range []string{`{`, `{"type":"x"}`, `{"solicitacaoId":"s1"}`} {
		if _, err := DecodeEvent([]byte(bad)); !errors.Is(err, ErrPermanent) {
			t.Fatalf("expected permanent error for %s, got %v", bad, err)
		}
	}
}
