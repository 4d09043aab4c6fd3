package serialmux

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func recvLine(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case line, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return line
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for line")
	}
	return ""
}

func TestSerialMux_SubscribeUnsubscribe(t *testing.T) {
	mux := NewSerialMux(NewTestableSerialPort())

	id1, ch1 := mux.Subscribe()
	id2, _ := mux.Subscribe()
	if id1 == "" || id1 == id2 {
		t.Fatalf("expected unique non-empty IDs, got %q and %q", id1, id2)
	}
	if got := mux.Stats().Subscribers; got != 2 {
		t.Errorf("Subscribers = %d, want 2", got)
	}

	mux.Unsubscribe(id1)
	if _, ok := <-ch1; ok {
		t.Error("expected channel to be closed after Unsubscribe")
	}
	if got := mux.Stats().Subscribers; got != 1 {
		t.Errorf("Subscribers = %d, want 1", got)
	}

	// unknown ids are ignored
	mux.Unsubscribe("non-existent-id")
}

func TestSerialMux_SendCommand(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)

	if err := mux.SendCommand("status"); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if err := mux.SendCommand("reset\n"); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if got := port.GetWrittenData(); got != "status\nreset\n" {
		t.Errorf("written = %q", got)
	}
}

func TestSerialMux_SendCommandErrors(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)

	port.WriteError = errors.New("boom")
	if err := mux.SendCommand("x"); err == nil {
		t.Error("expected write error")
	}

	port.ShortWrite = true
	if err := mux.SendCommand("x"); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("expected ErrWriteFailed, got %v", err)
	}
}

func TestSerialMux_MonitorFansOutLines(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	_, a := mux.Subscribe()
	_, b := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mux.Monitor(ctx) }()

	port.AddReadData([]byte("pose,1,2\r\nstop,5\n"))

	for _, ch := range []chan string{a, b} {
		if got := recvLine(t, ch); got != "pose,1,2" {
			t.Errorf("first line = %q, want pose,1,2", got)
		}
		if got := recvLine(t, ch); got != "stop,5" {
			t.Errorf("second line = %q, want stop,5", got)
		}
	}
	if got := mux.Stats().LinesRead; got != 2 {
		t.Errorf("LinesRead = %d, want 2", got)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Monitor returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Monitor did not return after cancel")
	}
	port.Close()
}

func TestSerialMux_MonitorDropsForFullSubscriber(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	var sb strings.Builder
	for i := 0; i < SubscriberBuffer+10; i++ {
		sb.WriteString("pose,0,0\n")
	}
	port.AddReadData([]byte(sb.String()))
	port.Close()

	if err := mux.Monitor(context.Background()); err != nil {
		t.Fatalf("Monitor: %v", err)
	}

	st := mux.Stats()
	if st.LinesDropped != 10 {
		t.Errorf("LinesDropped = %d, want 10", st.LinesDropped)
	}
	if len(ch) != SubscriberBuffer {
		t.Errorf("queued = %d, want %d", len(ch), SubscriberBuffer)
	}
}

func TestSerialMux_Close(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	if err := mux.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("expected subscriber channel closed")
	}
	if !port.Closed {
		t.Error("expected port closed")
	}
}

func TestSerialMux_AdminSendCommand(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	httpMux := http.NewServeMux()
	mux.AttachAdminRoutes(httpMux)

	form := url.Values{"command": {"status"}}
	req := httptest.NewRequest(http.MethodPost, "/debug/send-command-api", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	httpMux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := port.GetWrittenData(); got != "status\n" {
		t.Errorf("written = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/debug/send-command-api", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec = httptest.NewRecorder()
	httpMux.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestSerialMux_AdminTailStreamsLines(t *testing.T) {
	port := NewTestableSerialPort()
	mux := NewSerialMux(port)
	httpMux := http.NewServeMux()
	mux.AttachAdminRoutes(httpMux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	reqCtx, reqCancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/debug/tail", nil).WithContext(reqCtx)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()

	served := make(chan struct{})
	go func() {
		httpMux.ServeHTTP(rec, req)
		close(served)
	}()

	deadline := time.Now().Add(time.Second)
	for mux.Stats().Subscribers == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	port.AddReadData([]byte("stop,12\n"))
	deadline = time.Now().Add(time.Second)
	for mux.Stats().LinesRead == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	reqCancel()
	<-served

	body := rec.Body.String()
	if !strings.Contains(body, "data: stop,12") {
		t.Errorf("tail body missing line: %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	port.Close()
}
