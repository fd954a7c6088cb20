package broker

import (
	"errors"
	"net"
	"testing"
	"time"
)

func TestStart_PicksFreePort(t *testing.T) {
	b, err := Start(Options{Address: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer b.Close() //nolint:errcheck // Test cleanup

	if b.Port() == 0 {
		t.Fatalf("Port() = 0, want resolved port (addr %s)", b.Addr())
	}
	if b.Host() != "127.0.0.1" {
		t.Errorf("Host() = %q, want 127.0.0.1", b.Host())
	}

	conn, err := net.DialTimeout("tcp", b.Addr(), time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", b.Addr(), err)
	}
	conn.Close() //nolint:errcheck // Test cleanup
}

func TestStart_InvalidAddress(t *testing.T) {
	_, err := Start(Options{Address: "no-port"})
	if !errors.Is(err, ErrStartFailed) {
		t.Errorf("Start() error = %v, want ErrStartFailed", err)
	}
}

func TestPublish_NoSubscribers(t *testing.T) {
	b, err := Start(Options{Address: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer b.Close() //nolint:errcheck // Test cleanup

	if err := b.Publish("brickcommander/status", []byte(`{"status":"OK","message":"idle"}`), false); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}

func TestClose_Nil(t *testing.T) {
	var b *Embedded
	if err := b.Close(); err != nil {
		t.Errorf("Close() on nil broker error = %v", err)
	}
}

func TestClose_Twice(t *testing.T) {
	b, err := Start(Options{Address: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
