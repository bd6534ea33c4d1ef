package main

import "testing"

func TestListenAddr(t *testing.T) {
	cases := []struct {
		flag, port, want string
	}{
		{":8080", "", ":8080"},
		{":8080", "9090", ":9090"},
		{":8080", " 127.0.0.1:7000 ", "127.0.0.1:7000"},
	}
	for _, tc := range cases {
		if got := listenAddr(tc.flag, tc.port); got != tc.want {
			t.Errorf("listenAddr(%q, %q) = %q, want %q", tc.flag, tc.port, got, tc.want)
		}
	}
}
