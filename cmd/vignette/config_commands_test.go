package main

import (
	"strings"
	"testing"
)

func TestConfigShow(t *testing.T) {
	configPath := writeTestConfig(t)

	output, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "source: "+configPath) {
		t.Fatalf("source line missing:\n%s", output)
	}
	if !strings.Contains(output, "127.0.0.1:7519") {
		t.Fatalf("default bind missing:\n%s", output)
	}
	if !strings.Contains(output, "(unset)") {
		t.Fatalf("unset api key should be shown masked:\n%s", output)
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":                     "(unset)",
		"short":                "********",
		"sk-or-v1-abcdef12345": "sk-o...2345",
	}
	for value, want := range cases {
		if got := maskSecret(value); got != want {
			t.Fatalf("maskSecret(%q) = %q, want %q", value, got, want)
		}
	}
}
