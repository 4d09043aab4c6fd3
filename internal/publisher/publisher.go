// Package publisher streams trajectory windows to downstream controllers
// over gRPC.
package publisher

import (
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/waypoint-updater/internal/trajectory"
)

var (
	// droppedWindows counts windows not delivered, by stage
	droppedWindows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waypoint_publisher_dropped_windows_total",
		Help: "Windows dropped by the gRPC publisher (queue, client)",
	}, []string{"stage"})

	// connectedClients is the number of open window streams
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "waypoint_publisher_clients",
		Help: "Connected window stream clients",
	})
)

// Config holds configuration for the window gRPC server.
type Config struct {
	// ListenAddr is the address to listen on (e.g., "localhost:50061")
	ListenAddr string

	// MaxClients is the maximum number of concurrent streaming clients
	MaxClients int

	// ClientBuffer is the per-client window queue depth
	ClientBuffer int
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   "localhost:50061",
		MaxClients:   5,
		ClientBuffer: 10,
	}
}

// Publisher manages the gRPC server and window fan-out.
type Publisher struct {
	config   Config
	server   *grpc.Server
	listener net.Listener

	windowChan chan *structpb.Struct
	clients    map[string]*clientStream
	clientsMu  sync.RWMutex

	windowCount   atomic.Uint64
	clientCount   atomic.Int32
	droppedQueue  atomic.Uint64
	droppedClient atomic.Uint64

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// clientStream represents a connected streaming client.
type clientStream struct {
	id       string
	windowCh chan *structpb.Struct
}

// NewPublisher creates a new Publisher with the given configuration.
func NewPublisher(cfg Config) *Publisher {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultConfig().MaxClients
	}
	if cfg.ClientBuffer <= 0 {
		cfg.ClientBuffer = DefaultConfig().ClientBuffer
	}
	return &Publisher{
		config:     cfg,
		windowChan: make(chan *structpb.Struct, 100),
		clients:    make(map[string]*clientStream),
		stopCh:     make(chan struct{}),
	}
}

// Start binds ListenAddr and serves in the background.
func (p *Publisher) Start() error {
	log.Printf("[Publisher] Attempting to bind to %s...", p.config.ListenAddr)
	lis, err := net.Listen("tcp", p.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return p.Serve(lis)
}

// Serve serves the window stream on lis in the background.
func (p *Publisher) Serve(lis net.Listener) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("publisher already running")
	}
	p.listener = lis
	p.server = grpc.NewServer()
	RegisterWindowServiceServer(p.server, p)

	p.wg.Add(1)
	go p.broadcastLoop()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Printf("[Publisher] gRPC server listening on %s", lis.Addr())
		if err := p.server.Serve(lis); err != nil && p.running.Load() {
			log.Printf("[Publisher] gRPC server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (p *Publisher) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stop ends every stream and stops the server.
func (p *Publisher) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.stopCh)

	if p.server != nil {
		// Streams return on stopCh, so a graceful stop does not hang.
		p.server.GracefulStop()
	}
	p.wg.Wait()
	log.Printf("[Publisher] gRPC server stopped after %d windows", p.windowCount.Load())
}

// Publish queues w for every connected client. It never blocks: when the
// queue is full the window is dropped.
func (p *Publisher) Publish(w *trajectory.Window) {
	if !p.running.Load() || w == nil {
		return
	}
	msg, err := WindowToStruct(w)
	if err != nil {
		log.Printf("[Publisher] failed to encode window %d: %v", w.Seq, err)
		return
	}

	select {
	case p.windowChan <- msg:
		p.windowCount.Add(1)
	default:
		dropped := p.droppedQueue.Add(1)
		droppedWindows.WithLabelValues("queue").Inc()
		if dropped == 1 || dropped%100 == 0 {
			log.Printf("[Publisher] DROPPED window %d (total dropped: %d), channel full", w.Seq, dropped)
		}
	}
}

// broadcastLoop distributes windows to all connected clients.
func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case msg := <-p.windowChan:
			p.clientsMu.RLock()
			for _, client := range p.clients {
				select {
				case client.windowCh <- msg:
				default:
					// slow client: drop this window for it only
					p.droppedClient.Add(1)
					droppedWindows.WithLabelValues("client").Inc()
				}
			}
			p.clientsMu.RUnlock()
		}
	}
}

// addClient registers a new streaming client, or fails when MaxClients are
// already connected.
func (p *Publisher) addClient() (*clientStream, error) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if len(p.clients) >= p.config.MaxClients {
		return nil, status.Errorf(codes.ResourceExhausted, "max clients (%d) connected", p.config.MaxClients)
	}
	client := &clientStream{
		id:       uuid.NewString(),
		windowCh: make(chan *structpb.Struct, p.config.ClientBuffer),
	}
	p.clients[client.id] = client
	n := p.clientCount.Add(1)
	connectedClients.Set(float64(n))
	log.Printf("[Publisher] Client connected: %s (total: %d)", client.id, n)
	return client, nil
}

// removeClient unregisters a streaming client.
func (p *Publisher) removeClient(id string) {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if _, ok := p.clients[id]; !ok {
		return
	}
	delete(p.clients, id)
	n := p.clientCount.Add(-1)
	connectedClients.Set(float64(n))
	log.Printf("[Publisher] Client disconnected: %s (remaining: %d)", id, n)
}

// StreamWindows implements WindowServiceServer.
func (p *Publisher) StreamWindows(_ *emptypb.Empty, stream WindowService_StreamWindowsServer) error {
	client, err := p.addClient()
	if err != nil {
		return err
	}
	defer p.removeClient(client.id)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.stopCh:
			return status.Error(codes.Unavailable, "publisher stopping")
		case msg := <-client.windowCh:
			if err := stream.Send(msg); err != nil {
				return err
			}
		}
	}
}

// Stats returns current publisher statistics.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		WindowCount:   p.windowCount.Load(),
		ClientCount:   p.clientCount.Load(),
		DroppedQueue:  p.droppedQueue.Load(),
		DroppedClient: p.droppedClient.Load(),
		Running:       p.running.Load(),
	}
}

// PublisherStats contains publisher statistics.
type PublisherStats struct {
	WindowCount   uint64 `json:"window_count"`
	ClientCount   int32  `json:"client_count"`
	DroppedQueue  uint64 `json:"dropped_queue"`
	DroppedClient uint64 `json:"dropped_client"`
	Running       bool   `json:"running"`
}

// WaitForClients blocks until n clients are connected or timeout elapses.
func (p *Publisher) WaitForClients(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if int(p.clientCount.Load()) >= n {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return int(p.clientCount.Load()) >= n
}
