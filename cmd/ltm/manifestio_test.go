package main

import "testing"

func TestDefaultOutfile(t *testing.T) {
	cases := map[string]string{
		"tx.json":          "tx.tx.bin",
		"/a/b/manifest.json": "/a/b/manifest.tx.bin",
		"manifest":          "manifest.tx.bin",
	}
	for in, want := range cases {
		if got := defaultOutfile(in); got != want {
			t.Errorf("defaultOutfile(%q) = %q, want %q", in, got, want)
		}
	}
}
