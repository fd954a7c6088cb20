package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/brick-commander/internal/infrastructure/config"
)

// fakeInflux answers pings and captures write bodies.
type fakeInflux struct {
	mu     sync.Mutex
	writes []string
	status int
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping", "/health":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // Test server
		f.mu.Lock()
		f.writes = append(f.writes, string(body))
		status := f.status
		f.mu.Unlock()
		if status == 0 {
			status = http.StatusNoContent
		}
		w.WriteHeader(status)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeInflux) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.writes, "\n")
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "brickcommander",
		Bucket:        "telemetry",
		BatchSize:     100,
		FlushInterval: 60,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	if _, err := Connect(context.Background(), cfg, "lab"); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := Connect(context.Background(), testConfig(url), "lab"); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteCommandAndStatus(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := Connect(context.Background(), testConfig(srv.URL), "lab")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	client.WriteCommand(CommandSample{
		Device: "M1", Controller: "BuWizz2", Transition: "commit_power",
		Port: 1, Power: 55, Direction: "forward",
	})
	client.WriteStatus("OK", "Brick M1 connected")
	client.WriteAvailability("online")
	client.Flush()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(fake.body(), "gateway_availability") {
		time.Sleep(10 * time.Millisecond)
	}

	body := fake.body()
	for _, want := range []string{
		"brick_command,controller=BuWizz2,device=M1,site=lab,transition=commit_power",
		"power=55i",
		`direction="forward"`,
		"gateway_status,site=lab,status=OK",
		`message="Brick M1 connected"`,
		"gateway_availability,site=lab online=1i",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("write body missing %q:\n%s", want, body)
		}
	}
}

func TestWriteErrorsReported(t *testing.T) {
	fake := &fakeInflux{status: http.StatusBadRequest}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := Connect(context.Background(), testConfig(srv.URL), "lab")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	errs := make(chan error, 1)
	client.SetOnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})

	client.WriteStatus("ERROR", "x")
	client.Flush()

	select {
	case <-errs:
	case <-time.After(5 * time.Second):
		t.Fatal("write error not reported")
	}
}

func TestClosedClient(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client, err := Connect(context.Background(), testConfig(srv.URL), "lab")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	client.WriteStatus("OK", "ignored") // must not panic
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestCommandPoint_Disconnect(t *testing.T) {
	at := time.Unix(1700000000, 0)
	line := write.PointToLineProtocol(commandPoint("lab", CommandSample{
		Device: "M1", Controller: "X", Transition: "disconnect",
		Port: 2, Direction: "forward", Disconnect: true, At: at,
	}), time.Second)

	const want = `brick_command,controller=X,device=M1,site=lab,transition=disconnect direction="forward",disconnect=true,port=2i,power=0i 1700000000`
	if strings.TrimSpace(line) != want {
		t.Errorf("line = %q, want %q", line, want)
	}
}
