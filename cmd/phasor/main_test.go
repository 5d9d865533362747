package main

import (
	"flag"
	"testing"
)

func TestIsSet(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"-freq", "0"}, true},
		{[]string{"-freq=1e3"}, true},
		{[]string{"-v"}, false},
	}

	for _, tt := range tests {
		fs := flag.NewFlagSet("phasor", flag.ContinueOnError)
		fs.Float64("freq", 0, "")
		fs.Bool("v", false, "")
		if err := fs.Parse(tt.args); err != nil {
			t.Fatalf("Parse(%q): %v", tt.args, err)
		}
		if got := isSet(fs, "freq"); got != tt.want {
			t.Errorf("isSet(%q) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
