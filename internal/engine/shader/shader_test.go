package shader

import "testing"

func TestCleanLog(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", []byte{0}, ""},
		{"nul terminated", []byte("0:12(3): error: syntax error\n\x00garbage"), "0:12(3): error: syntax error"},
		{"multi line", []byte("ERROR: a\nERROR: b\n"), "ERROR: a ERROR: b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanLog(tt.in); got != tt.want {
				t.Errorf("cleanLog() = %q, want %q", got, tt.want)
			}
		})
	}
}
