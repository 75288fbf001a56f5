package core

import (
	"bytes"
	"testing"
)

func TestMacro(t *testing.T) {
	if got := Macro("JS1", ""); got != "%%FILE:JS1%%" {
		t.Errorf("Macro(JS1) = %q, want %%%%FILE:JS1%%%%", got)
	}
	if got := Macro("PNG2", "__x5__.macro_%s"); got != "__x5__.macro_PNG2" {
		t.Errorf("Macro with template = %q", got)
	}
}

func TestEscapeModuloOp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"var x = i%n;", "var x = i% n;"},
		{"a%c b%h", "a% c b% h"},
		// Already-escaped macros keep their double percent.
		{`src="%%FILE:PNG1%%"`, `src="%%FILE:PNG1%%"`},
		// No preceding character at the start of the content.
		{"%n at start", "%n at start"},
		// Letters outside the macro code set stay untouched.
		{"100%x 50%z", "100%x 50%z"},
	}
	for _, tt := range tests {
		got := EscapeModuloOp([]byte(tt.in))
		if string(got) != tt.want {
			t.Errorf("EscapeModuloOp(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeModuloOpIdempotent(t *testing.T) {
	in := []byte("i%n j%%s k%a 100%t")
	once := EscapeModuloOp(in)
	twice := EscapeModuloOp(once)
	if !bytes.Equal(once, twice) {
		t.Errorf("second escape changed content: %q -> %q", once, twice)
	}
}
