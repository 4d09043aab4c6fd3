package serialmux

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReplayPort_ReplaysOnceThenEOF(t *testing.T) {
	mux := NewSerialMux(NewReplayPort([]string{"pose,0,0", "stop,4"}, 0, false))
	_, ch := mux.Subscribe()

	if err := mux.Monitor(context.Background()); err != nil {
		t.Fatalf("Monitor: %v", err)
	}

	var got []string
	for len(ch) > 0 {
		got = append(got, <-ch)
	}
	if len(got) != 2 || got[0] != "pose,0,0" || got[1] != "stop,4" {
		t.Errorf("replayed %q", got)
	}
}

func TestReplayPort_LoopUntilClosed(t *testing.T) {
	port := NewReplayPort([]string{"pose,1,1"}, time.Millisecond, true)
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	for i := 0; i < 3; i++ {
		if got := recvLine(t, ch); got != "pose,1,1" {
			t.Errorf("line %d = %q", i, got)
		}
	}
	if err := mux.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestReplayPort_CapturesWrites(t *testing.T) {
	port := NewReplayPort(nil, 0, false)
	mux := NewSerialMux(port)
	if err := mux.SendCommand("hello"); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if port.Written() != "hello\n" {
		t.Errorf("Written() = %q", port.Written())
	}
	port.Close()
}

func TestReadFixtureLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive.txt")
	contents := "# recorded drive\n\npose,0,0\n  stop,6  \n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines, err := ReadFixtureLines(path)
	if err != nil {
		t.Fatalf("ReadFixtureLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "pose,0,0" || lines[1] != "stop,6" {
		t.Errorf("lines = %q", lines)
	}

	if _, err := ReadFixtureLines(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewReplaySerialMux(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drive.txt")
	if err := os.WriteFile(path, []byte("stop,3\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mux, err := NewReplaySerialMux(path, 0, false)
	if err != nil {
		t.Fatalf("NewReplaySerialMux: %v", err)
	}
	_, ch := mux.Subscribe()
	if err := mux.Monitor(context.Background()); err != nil {
		t.Fatalf("Monitor: %v", err)
	}
	if got := <-ch; got != "stop,3" {
		t.Errorf("line = %q", got)
	}
}
