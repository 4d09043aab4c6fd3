package serialmux

import (
	"errors"
	"testing"

	"go.bug.st/serial"
)

func TestOpenSerialMux(t *testing.T) {
	port := NewTestableSerialPort()
	var gotPath string
	var gotMode *serial.Mode
	opener := func(path string, mode *serial.Mode) (SerialPorter, error) {
		gotPath, gotMode = path, mode
		return port, nil
	}

	mux, err := OpenSerialMux(opener, "/dev/ttyUSB0", PortOptions{BaudRate: 57600})
	if err != nil {
		t.Fatalf("OpenSerialMux: %v", err)
	}
	if gotPath != "/dev/ttyUSB0" {
		t.Errorf("path = %q", gotPath)
	}
	if gotMode.BaudRate != 57600 {
		t.Errorf("BaudRate = %d, want 57600", gotMode.BaudRate)
	}
	if err := mux.SendCommand("ping"); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if got := port.GetWrittenData(); got != "ping\n" {
		t.Errorf("written = %q", got)
	}
}

func TestOpenSerialMux_Errors(t *testing.T) {
	failing := func(string, *serial.Mode) (SerialPorter, error) {
		return nil, errors.New("no such device")
	}
	if _, err := OpenSerialMux(failing, "/dev/none", PortOptions{}); err == nil {
		t.Error("expected open error")
	}

	called := false
	opener := func(string, *serial.Mode) (SerialPorter, error) {
		called = true
		return NewTestableSerialPort(), nil
	}
	if _, err := OpenSerialMux(opener, "/dev/x", PortOptions{Parity: "Z"}); err == nil {
		t.Error("expected options error")
	}
	if called {
		t.Error("opener must not run with invalid options")
	}
}
