package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdioConfirmer(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "Yes\n": true, "n\n": false, "\n": false, "": false} {
		var out bytes.Buffer
		ok, err := stdioConfirmer{in: strings.NewReader(input), out: &out}.Confirm("Overwrite?")
		if err != nil {
			t.Fatalf("input %q: %v", input, err)
		}
		if ok != want {
			t.Fatalf("input %q: got %v, want %v", input, ok, want)
		}
		if !strings.Contains(out.String(), "Overwrite? [y/N]") {
			t.Fatalf("missing prompt: %q", out.String())
		}
	}
	ok, err := stdioConfirmer{assumeYes: true}.Confirm("Overwrite?")
	if err != nil || !ok {
		t.Fatalf("assumeYes: %v %v", ok, err)
	}
}
