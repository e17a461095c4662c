package domain

import (
	"errors"
	"testing"
)

func TestNewIdentifier(t *testing.T) {
	for i := 0; i < 200; i++ {
		id := NewIdentifier()
		parsed, err := ParseIdentifier(id.Hex())
		if err != nil {
			t.Fatalf("parse %s: %v", id, err)
		}
		if parsed != id {
			t.Fatalf("round trip %s -> %s", id, parsed)
		}
	}
}

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		in      string
		want    Identifier
		wantErr bool
	}{
		{in: "ab12cd34", want: "ab12cd34"},
		{in: " AB12CD34 ", want: "ab12cd34"},
		{in: "12345678", wantErr: true},
		{in: "ab12cd3", wantErr: true},
		{in: "ab12cd345", wantErr: true},
		{in: "zz12cd34", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIdentifier(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
