package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/banshee-data/waypoint-updater/internal/config"
	"github.com/banshee-data/waypoint-updater/internal/db"
	"github.com/banshee-data/waypoint-updater/internal/ingest"
	"github.com/banshee-data/waypoint-updater/internal/monitor"
	"github.com/banshee-data/waypoint-updater/internal/planner"
	"github.com/banshee-data/waypoint-updater/internal/publisher"
	"github.com/banshee-data/waypoint-updater/internal/serialmux"
	"github.com/banshee-data/waypoint-updater/internal/timeutil"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// options are the daemon's command-line settings.
type options struct {
	ConfigPath string
	DBPath     string

	PathName   string
	PathCSV    string
	SpeedUnits string

	SerialPort     string
	SerialOptions  serialmux.PortOptions
	Fixtures       string
	ReplayInterval time.Duration
	ReplayLoop     bool

	Listen     string
	GRPCListen string
}

// daemon owns every long-running component.
type daemon struct {
	opts options

	store      *db.DB
	state      *planner.State
	planner    *planner.Planner
	recorder   *db.WindowRecorder
	publisher  *publisher.Publisher
	serial     serialmux.SerialMuxInterface
	dispatcher *ingest.Dispatcher
	web        *monitor.WebServer

	httpLis net.Listener
	grpcLis net.Listener
}

func loadConfig(path string) (*config.PlannerConfig, error) {
	if path == "" {
		return config.DefaultPlannerConfig(), nil
	}
	return config.LoadPlannerConfig(path)
}

func openSerial(o options) (serialmux.SerialMuxInterface, error) {
	switch {
	case o.Fixtures != "":
		log.Printf("replaying input from %s every %v", o.Fixtures, o.ReplayInterval)
		return serialmux.NewReplaySerialMux(o.Fixtures, o.ReplayInterval, o.ReplayLoop)
	case o.SerialPort != "":
		return serialmux.NewRealSerialMux(o.SerialPort, o.SerialOptions)
	default:
		log.Printf("no input configured, serial ingest disabled")
		return serialmux.NewDisabledSerialMux(), nil
	}
}

// startupPath loads the reference path named on the command line, if any.
func (d *daemon) startupPath() (*waypoint.Path, error) {
	switch {
	case d.opts.PathCSV != "":
		f, err := os.Open(d.opts.PathCSV)
		if err != nil {
			return nil, fmt.Errorf("failed to open path csv: %w", err)
		}
		defer f.Close()
		points, err := waypoint.ReadCSV(f, d.opts.SpeedUnits)
		if err != nil {
			return nil, err
		}
		return waypoint.NewPath(points)
	case d.opts.PathName != "":
		if d.store == nil {
			return nil, errors.New("-path-name requires a database")
		}
		return d.store.LoadPath(d.opts.PathName)
	}
	return nil, nil
}

func newDaemon(o options) (*daemon, error) {
	cfg, err := loadConfig(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	d := &daemon{opts: o, state: planner.NewState()}

	if o.DBPath != "" {
		if d.store, err = db.OpenDB(o.DBPath); err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		d.recorder = db.NewWindowRecorder(d.store, cfg.GetRecordEvery(), 0)
	}

	path, err := d.startupPath()
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to load reference path: %w", err)
	}
	if path != nil {
		if _, err := d.state.LoadPath(path); err != nil {
			d.Close()
			return nil, err
		}
	}

	d.publisher = publisher.NewPublisher(publisher.Config{
		ListenAddr:   o.GRPCListen,
		MaxClients:   cfg.GetPublisherMaxClients(),
		ClientBuffer: cfg.GetPublisherClientBuffer(),
	})

	sinks := []planner.Sink{d.publisher}
	if d.recorder != nil {
		sinks = append(sinks, d.recorder)
	}
	d.planner, err = planner.New(planner.ConfigFromPlannerConfig(cfg), d.state, timeutil.RealClock{}, sinks...)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}

	if d.serial, err = openSerial(o); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	d.dispatcher = ingest.NewDispatcher(d.serial, d.state)

	d.web = monitor.NewWebServer(d.planner)
	d.web.AddStats("ingest", func() any { return d.dispatcher.Stats() })
	d.web.AddStats("publisher", func() any { return d.publisher.Stats() })
	if d.recorder != nil {
		d.web.AddStats("recorder", func() any { return d.recorder.Stats() })
	}
	if s, ok := d.serial.(interface{ Stats() serialmux.Stats }); ok {
		d.web.AddStats("serial", func() any { return s.Stats() })
	}

	if d.httpLis, err = net.Listen("tcp", o.Listen); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", o.Listen, err)
	}
	if d.grpcLis, err = net.Listen("tcp", o.GRPCListen); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", o.GRPCListen, err)
	}
	return d, nil
}

// handler builds the HTTP surface: status and charts, metrics and the
// admin debug routes.
func (d *daemon) handler() (http.Handler, error) {
	mux := http.NewServeMux()
	d.web.RegisterRoutes(mux)
	d.serial.AttachAdminRoutes(mux)
	if d.store != nil {
		if err := d.store.AttachAdminRoutes(mux); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

// Run starts every component and blocks until ctx is cancelled.
func (d *daemon) Run(ctx context.Context) error {
	h, err := d.handler()
	if err != nil {
		return err
	}

	if err := d.publisher.Serve(d.grpcLis); err != nil {
		return err
	}
	defer d.publisher.Stop()

	var wg sync.WaitGroup

	// ingest must subscribe before the read loop starts
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := d.dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("ingest routine error: %v", err)
		}
		log.Print("ingest routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-d.dispatcher.Subscribed():
		case <-ctx.Done():
			return
		}
		if err := d.serial.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	if d.recorder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.recorder.Run(ctx)
			log.Print("recorder routine terminated")
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := d.planner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("planner error: %v", err)
		}
		log.Print("planner routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{Handler: h}
		go func() {
			if err := server.Serve(d.httpLis); err != nil && err != http.ErrServerClosed {
				log.Printf("HTTP server error: %v", err)
			}
		}()
		log.Printf("HTTP server listening on %s", d.httpLis.Addr())

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	return nil
}

// Close releases the input port and the database.
func (d *daemon) Close() {
	if d.serial != nil {
		if err := d.serial.Close(); err != nil {
			log.Printf("failed to close input: %v", err)
		}
	}
	if d.httpLis != nil {
		d.httpLis.Close()
	}
	if d.grpcLis != nil {
		d.grpcLis.Close()
	}
	if d.store != nil {
		d.store.Close()
	}
}
