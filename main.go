package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/waypoint-updater/internal/monitoring"
	"github.com/banshee-data/waypoint-updater/internal/serialmux"
	"github.com/banshee-data/waypoint-updater/internal/units"
	"github.com/banshee-data/waypoint-updater/internal/version"
)

var (
	configPath     = flag.String("config", "", "planner config JSON (built-in defaults when empty)")
	dbPath         = flag.String("db", "waypoints.db", "sqlite database for paths and the window log (empty disables)")
	pathName       = flag.String("path-name", "", "stored reference path to load at startup")
	pathCSV        = flag.String("path-csv", "", "CSV reference path to load at startup")
	speedUnits     = flag.String("speed-units", units.MPS, "speed units of -path-csv")
	serialPort     = flag.String("serial-port", "", "vehicle bridge serial device")
	baudRate       = flag.Int("baud", serialmux.DefaultBaudRate, "serial baud rate")
	fixtures       = flag.String("fixtures", "", "replay input lines from this file instead of a serial port")
	replayInterval = flag.Duration("replay-interval", 20*time.Millisecond, "delay between replayed lines")
	replayLoop     = flag.Bool("replay-loop", true, "repeat the fixtures file")
	listen         = flag.String("listen", ":8080", "HTTP listen address")
	grpcListen     = flag.String("grpc-listen", "localhost:50061", "gRPC window stream listen address")
	debugLog       = flag.Bool("debug", false, "enable per-tick debug logging")
	showVersion    = flag.Bool("version", false, "print version and exit")
)

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid -speed-units %q (valid: %v)", *speedUnits, units.ValidUnits)
	}
	monitoring.SetDebug(*debugLog)
	log.Printf("starting %s", version.Get())

	d, err := newDaemon(options{
		ConfigPath:     *configPath,
		DBPath:         *dbPath,
		PathName:       *pathName,
		PathCSV:        *pathCSV,
		SpeedUnits:     *speedUnits,
		SerialPort:     *serialPort,
		SerialOptions:  serialmux.PortOptions{BaudRate: *baudRate},
		Fixtures:       *fixtures,
		ReplayInterval: *replayInterval,
		ReplayLoop:     *replayLoop,
		Listen:         *listen,
		GRPCListen:     *grpcListen,
	})
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		log.Fatalf("daemon error: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}
