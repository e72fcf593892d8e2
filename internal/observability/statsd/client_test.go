package statsd

import (
	"net"
	"strings"
	"testing"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "gateway"}
	tests := map[string]string{
		"decision":          "gateway.decision",
		" account/check ":   "gateway.account_check",
		"two words":         "gateway.two_words",
		"":                  "",
		"  ":                "",
		".trailing.dotted.": "gateway.trailing.dotted",
	}
	for input, want := range tests {
		if got := c.metricName(input); got != want {
			t.Fatalf("metricName(%q) = %q, want %q", input, got, want)
		}
	}

	bare := &Client{}
	if got := bare.metricName("decision"); got != "decision" {
		t.Fatalf("metricName without prefix = %q", got)
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	got := formatTags(map[string]string{
		"outcome": " forward ",
		"env":     "prod",
		"":        "ignored",
	})
	want := "|#env:prod,outcome:forward"
	if got != want {
		t.Fatalf("formatTags mismatch\n got: %q\nwant: %q", got, want)
	}

	if got := formatTags(nil); got != "" {
		t.Fatalf("formatTags(nil) = %q, want empty string", got)
	}
}

func TestClientCountEmitsLine(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	defer pc.Close()

	client, err := NewClient(Config{
		Enabled: true,
		Address: pc.LocalAddr().String(),
		Prefix:  "gateway",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if !client.Enabled() {
		t.Fatal("client should be enabled")
	}

	client.Count("decision", 1, map[string]string{"outcome": "forward"})

	buf := make([]byte, 512)
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read udp: %v", err)
	}

	line := string(buf[:n])
	want := "gateway.decision:1|c|#outcome:forward"
	if line != want {
		t.Fatalf("emitted %q, want %q", line, want)
	}
}

func TestDisabledClientIsInert(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: false, Address: "localhost:8125"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Enabled() {
		t.Fatal("disabled client reports enabled")
	}

	// Must not panic or dial.
	client.Count("decision", 1, nil)
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client reports enabled")
	}
	nilClient.Count("decision", 1, nil)
	if err := nilClient.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestEmptyAddressDisables(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Enabled() {
		t.Fatal("blank address should disable the client")
	}
	if strings.Contains(client.prefix, " ") {
		t.Fatal("prefix not trimmed")
	}
}
