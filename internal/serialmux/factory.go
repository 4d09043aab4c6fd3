package serialmux

import (
	"fmt"

	"go.bug.st/serial"
)

// PortOpener opens a serial device. Tests replace it to avoid hardware.
type PortOpener func(path string, mode *serial.Mode) (SerialPorter, error)

// DefaultOpener opens a real device through go.bug.st/serial.
func DefaultOpener(path string, mode *serial.Mode) (SerialPorter, error) {
	return serial.Open(path, mode)
}

// NewRealSerialMux creates a SerialMux instance backed by a real serial port
// at the given path using the provided serial options.
func NewRealSerialMux(path string, opts PortOptions) (*SerialMux[SerialPorter], error) {
	return OpenSerialMux(DefaultOpener, path, opts)
}

// OpenSerialMux opens path with opener and wraps it in a SerialMux.
func OpenSerialMux(opener PortOpener, path string, opts PortOptions) (*SerialMux[SerialPorter], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := opener(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	return NewSerialMux[SerialPorter](port), nil
}

// ListPorts returns the serial devices visible to the host.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
