package serialmux

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ReplayPort implements SerialPorter by replaying recorded input lines at a
// fixed interval. Writes are captured so commands can be inspected.
type ReplayPort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer

	closeOnce sync.Once
	done      chan struct{}
}

// NewReplayPort starts replaying lines, one every interval. When loop is set
// the lines repeat until the port is closed; otherwise the port reports EOF
// after the last line.
func NewReplayPort(lines []string, interval time.Duration, loop bool) *ReplayPort {
	r, w := io.Pipe()
	p := &ReplayPort{r: r, w: w, done: make(chan struct{})}

	go func() {
		defer w.Close()
		if len(lines) == 0 {
			return
		}
		var ticker *time.Ticker
		if interval > 0 {
			ticker = time.NewTicker(interval)
			defer ticker.Stop()
		}
		for {
			for _, line := range lines {
				if ticker != nil {
					select {
					case <-ticker.C:
					case <-p.done:
						return
					}
				}
				if _, err := w.Write([]byte(line + "\n")); err != nil {
					return
				}
			}
			if !loop {
				return
			}
		}
	}()

	return p
}

func (p *ReplayPort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *ReplayPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(b)
}

// Close stops the replay and unblocks readers.
func (p *ReplayPort) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.r.Close()
	})
	return nil
}

// Written returns everything written to the port.
func (p *ReplayPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// ReadFixtureLines loads a replay file. Blank lines and lines starting with
// "#" are skipped.
func ReadFixtureLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer f.Close()

	var lines []string
	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), 4*1024*1024) // path messages can be long
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return lines, nil
}

// NewReplaySerialMux creates a SerialMux that replays the lines in a fixtures
// file in place of a vehicle bridge.
func NewReplaySerialMux(path string, interval time.Duration, loop bool) (*SerialMux[*ReplayPort], error) {
	lines, err := ReadFixtureLines(path)
	if err != nil {
		return nil, err
	}
	return NewSerialMux(NewReplayPort(lines, interval, loop)), nil
}

// TestableSerialPort implements SerialPorter with configurable behaviour for
// testing.
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// WriteError is returned by the next Write call if set
	WriteError error

	// ShortWrite makes Write report one byte fewer than it was given
	ShortWrite bool

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	readCond *sync.Cond
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	tsp := &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
	tsp.readCond = sync.NewCond(&tsp.mu)
	return tsp
}

// Read blocks until data is added or the port is closed.
func (t *TestableSerialPort) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for !t.Closed && t.ReadBuffer.Len() == 0 {
		t.readCond.Wait()
	}
	if t.ReadBuffer.Len() == 0 {
		return 0, io.EOF
	}
	return t.ReadBuffer.Read(p)
}

// Write writes to the write buffer, optionally simulating errors.
func (t *TestableSerialPort) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}
	n, err = t.WriteBuffer.Write(p)
	if t.ShortWrite && n > 0 {
		n--
	}
	return n, err
}

// Close marks the port as closed and wakes blocked readers.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	t.readCond.Broadcast()
	return t.CloseError
}

// AddReadData adds data to be returned by subsequent Read calls.
func (t *TestableSerialPort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Write(data)
	t.readCond.Broadcast()
}

// GetWrittenData returns all data written to the port.
func (t *TestableSerialPort) GetWrittenData() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.WriteBuffer.String()
}
