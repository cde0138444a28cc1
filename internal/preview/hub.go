// Package preview pushes regenerated stylesheets to dashboard clients over
// websockets while branding is being edited.
package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/plinth-cms/plinth/internal/stylesheet"
	"github.com/rs/zerolog"
)

// MessageTypeStylesheet is the type of messages carrying a stylesheet.
const MessageTypeStylesheet = "stylesheet"

// StylesheetSource returns the current stylesheet of a website.
type StylesheetSource interface {
	Get(ctx context.Context, websiteID uuid.UUID) (*stylesheet.Stylesheet, error)
}

// ClientGauge records the number of connected preview clients.
type ClientGauge interface {
	SetPreviewClients(n int)
}

// Message is pushed to every client watching a website.
type Message struct {
	Type      string    `json:"type"`
	WebsiteID uuid.UUID `json:"website_id"`
	ETag      string    `json:"etag"`
	CSS       string    `json:"css"`
}

// Config holds configuration for the Hub.
type Config struct {
	// AllowedOrigins restricts websocket origins. Empty allows all.
	AllowedOrigins []string
	// PingInterval is how often to send ping messages to clients.
	PingInterval time.Duration
	// WriteTimeout is the timeout for writing to a client.
	WriteTimeout time.Duration
	// ReadTimeout is the timeout for reading from a client.
	ReadTimeout time.Duration
	// MaxMessageSize is the maximum size of a message from a client.
	MaxMessageSize int64
	// SendBufferSize is the size of the send buffer per client.
	SendBufferSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 512,
		SendBufferSize: 16,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = d.SendBufferSize
	}
	return c
}

// client is one connected websocket.
type client struct {
	id        uuid.UUID
	websiteID uuid.UUID
	conn      *websocket.Conn
	send      chan *Message
	hub       *Hub
}

// delivery targets a single client.
type delivery struct {
	client *client
	msg    *Message
}

// Hub manages preview clients and fans stylesheet updates out to them.
type Hub struct {
	config   Config
	source   StylesheetSource
	gauge    ClientGauge
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	clients     map[uuid.UUID]*client
	siteClients map[uuid.UUID]map[uuid.UUID]*client // websiteID -> clientID -> client
	clientsMu   sync.RWMutex

	broadcast  chan *Message
	direct     chan delivery
	register   chan *client
	unregister chan *client

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHub creates a new Hub with the given configuration. Zero fields take
// their DefaultConfig values.
func NewHub(source StylesheetSource, cfg Config, logger zerolog.Logger) *Hub {
	h := &Hub{
		config:      cfg.withDefaults(),
		source:      source,
		logger:      logger.With().Str("component", "preview_hub").Logger(),
		clients:     make(map[uuid.UUID]*client),
		siteClients: make(map[uuid.UUID]map[uuid.UUID]*client),
		broadcast:   make(chan *Message, 64),
		direct:      make(chan delivery, 64),
		register:    make(chan *client),
		unregister:  make(chan *client),
		done:        make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// SetGauge sets the gauge updated when clients connect or disconnect.
func (h *Hub) SetGauge(g ClientGauge) {
	h.gauge = g
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.config.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// Start begins processing updates and client management.
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
	h.logger.Info().Msg("preview hub started")
}

// Stop stops the hub and closes all client connections.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()
		h.logger.Info().Msg("preview hub stopped")
	})
}

// run is the main event loop. It alone sends on and closes client channels.
func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case c := <-h.register:
			h.addClient(c)

		case c := <-h.unregister:
			h.removeClient(c)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)

		case d := <-h.direct:
			h.clientsMu.RLock()
			_, ok := h.clients[d.client.id]
			h.clientsMu.RUnlock()
			if ok {
				h.deliver(d.client, d.msg)
			}
		}
	}
}

func (h *Hub) addClient(c *client) {
	h.clientsMu.Lock()
	h.clients[c.id] = c
	if _, ok := h.siteClients[c.websiteID]; !ok {
		h.siteClients[c.websiteID] = make(map[uuid.UUID]*client)
	}
	h.siteClients[c.websiteID][c.id] = c
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.setGauge(total)
	h.logger.Debug().
		Str("client_id", c.id.String()).
		Str("website_id", c.websiteID.String()).
		Msg("preview client connected")
}

func (h *Hub) removeClient(c *client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, c.id)
	if site, ok := h.siteClients[c.websiteID]; ok {
		delete(site, c.id)
		if len(site) == 0 {
			delete(h.siteClients, c.websiteID)
		}
	}
	close(c.send)
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.setGauge(total)
	h.logger.Debug().
		Str("client_id", c.id.String()).
		Str("website_id", c.websiteID.String()).
		Msg("preview client disconnected")
}

func (h *Hub) closeAllClients() {
	h.clientsMu.Lock()
	for _, c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[uuid.UUID]*client)
	h.siteClients = make(map[uuid.UUID]map[uuid.UUID]*client)
	h.clientsMu.Unlock()

	h.setGauge(0)
}

func (h *Hub) broadcastMessage(msg *Message) {
	h.clientsMu.RLock()
	targets := make([]*client, 0, len(h.siteClients[msg.WebsiteID]))
	for _, c := range h.siteClients[msg.WebsiteID] {
		targets = append(targets, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range targets {
		h.deliver(c, msg)
	}
}

func (h *Hub) deliver(c *client, msg *Message) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn().
			Str("client_id", c.id.String()).
			Msg("client send buffer full, dropping stylesheet")
	}
}

func (h *Hub) setGauge(n int) {
	if h.gauge != nil {
		h.gauge.SetPreviewClients(n)
	}
}

// Publish queues msg for every client watching its website.
func (h *Hub) Publish(msg *Message) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn().Msg("broadcast buffer full, dropping stylesheet")
	}
}

// BrandingChanged pushes the regenerated stylesheet to clients watching
// websiteID. It implements branding.ChangeListener.
func (h *Hub) BrandingChanged(ctx context.Context, websiteID uuid.UUID) {
	if h.ClientCount(websiteID) == 0 {
		return
	}
	msg, err := h.snapshot(ctx, websiteID)
	if err != nil {
		h.logger.Error().Err(err).Str("website_id", websiteID.String()).Msg("failed to build preview stylesheet")
		return
	}
	h.Publish(msg)
}

func (h *Hub) snapshot(ctx context.Context, websiteID uuid.UUID) (*Message, error) {
	sheet, err := h.source.Get(ctx, websiteID)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      MessageTypeStylesheet,
		WebsiteID: websiteID,
		ETag:      sheet.ETag,
		CSS:       sheet.CSS,
	}, nil
}

// HandleWebSocket upgrades the connection and streams stylesheets for
// websiteID, starting with the current one.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, websiteID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	c := &client{
		id:        uuid.New(),
		websiteID: websiteID,
		conn:      conn,
		send:      make(chan *Message, h.config.SendBufferSize),
		hub:       h,
	}

	if msg, err := h.snapshot(r.Context(), websiteID); err != nil {
		h.logger.Error().Err(err).Str("website_id", websiteID.String()).Msg("failed to build initial stylesheet")
	} else {
		c.send <- msg
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of clients watching websiteID.
func (h *Hub) ClientCount(websiteID uuid.UUID) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.siteClients[websiteID])
}

// TotalClients returns the total number of connected clients.
func (h *Hub) TotalClients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// readPump reads client messages. {"type":"refresh"} requests the current
// stylesheet again.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Msg("websocket read error")
			}
			return
		}

		var req struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(message, &req); err != nil || req.Type != "refresh" {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.hub.config.WriteTimeout)
		msg, err := c.hub.snapshot(ctx, c.websiteID)
		cancel()
		if err != nil {
			c.hub.logger.Error().Err(err).Str("website_id", c.websiteID.String()).Msg("failed to refresh preview stylesheet")
			continue
		}
		select {
		case c.hub.direct <- delivery{client: c, msg: msg}:
		case <-c.hub.done:
			return
		}
	}
}

// writePump writes messages to the client.
func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
