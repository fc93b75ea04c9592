package main

import "testing"

func TestProbeAddr(t *testing.T) {
	tests := []struct {
		listen string
		want   string
	}{
		{listen: "0.0.0.0:5502", want: "127.0.0.1:5502"},
		{listen: ":5502", want: "127.0.0.1:5502"},
		{listen: "[::]:5502", want: "127.0.0.1:5502"},
		{listen: "10.0.0.4:502", want: "10.0.0.4:502"},
		{listen: "station.local", want: "station.local"},
	}

	for _, tt := range tests {
		if got := probeAddr(tt.listen); got != tt.want {
			t.Errorf("probeAddr(%q) = %q, want %q", tt.listen, got, tt.want)
		}
	}
}
