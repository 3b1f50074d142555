package storage

import (
	"testing"
	"time"
)

func TestObjectKey(t *testing.T) {
	at := time.Unix(0, 42)
	cases := []struct {
		in, want string
	}{
		{"boleto.pdf", "boleto/SOL-1/42_boleto.pdf"},
		{"../../etc/passwd", "boleto/SOL-1/42_passwd"},
		{`C:\Users\x\nota.xml`, "boleto/SOL-1/42_nota.xml"},
	}
	for _, tc := range cases {
		if got := ObjectKey("boleto", "SOL-1", tc.in, at); got != tc.want {
			t.Fatalf("ObjectKey(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}
