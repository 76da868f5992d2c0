// Package notify pushes committed cash register movements to websocket clients.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	statusTimeout  = 5 * time.Second
	maxMessageSize = 4096
)

// BalanceFunc reads the current register balance for caisse_status frames
type BalanceFunc func(ctx context.Context) (valueobject.Money, time.Time, error)

// Config holds hub settings
type Config struct {
	MaxClients     int
	PingInterval   time.Duration
	AllowedOrigins []string
	SendBuffer     int
}

// Hub keeps the connected clients and their group memberships. It is an
// EventHandler: committed ledger events are turned into frames and fanned
// out to the matching groups.
type Hub struct {
	upgrader websocket.Upgrader
	cfg      Config
	balance  BalanceFunc
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	groups  map[string]map[*client]struct{}
	closed  bool
}

// NewHub creates a hub. balance may be nil, status frames then report zero.
func NewHub(cfg Config, balance BalanceFunc, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 32
	}
	h := &Hub{
		cfg:     cfg,
		balance: balance,
		logger:  logger.Named("notify"),
		clients: make(map[*client]struct{}),
		groups:  make(map[string]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, "*") || slices.Contains(h.cfg.AllowedOrigins, origin)
}

// ServeClient upgrades the request and registers the connection. The caller
// has already authenticated user.
func (h *Hub) ServeClient(w http.ResponseWriter, r *http.Request, user string) error {
	h.mu.RLock()
	full := h.cfg.MaxClients > 0 && len(h.clients) >= h.cfg.MaxClients
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "Notifications unavailable", http.StatusServiceUnavailable)
		return ErrHubClosed
	}
	if full {
		http.Error(w, "Maximum clients reached", http.StatusServiceUnavailable)
		return ErrTooManyClients
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{
		hub:  h,
		conn: conn,
		user: user,
		send: make(chan []byte, h.cfg.SendBuffer),
		done: make(chan struct{}),
	}
	if !h.register(c) {
		_ = conn.Close()
		return ErrHubClosed
	}

	go c.writePump(h.cfg.PingInterval)
	go c.readPump(2 * h.cfg.PingInterval)

	h.sendStatus(c)
	h.logger.Debug("websocket client connected", zap.String("user", user))
	return nil
}

// Handle implements shared.EventHandler
func (h *Hub) Handle(_ context.Context, event shared.DomainEvent) error {
	d, ok := translate(event)
	if !ok {
		return nil
	}
	h.broadcast(d.groups, d.msg)
	return nil
}

// EventTypes implements shared.EventHandler
func (h *Hub) EventTypes() []string {
	return []string{
		ledger.EventTypeCashOperationRecorded,
		ledger.EventTypeCashBalanceAdjusted,
		debt.EventTypeDebtSettled,
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GroupSize returns the number of clients in a group
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.groups = make(map[string]map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.logger.Info("notification hub closed", zap.Int("clients", len(clients)))
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.joinLocked(c, GlobalGroup)
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		for name, members := range h.groups {
			delete(members, c)
			if len(members) == 0 {
				delete(h.groups, name)
			}
		}
	}
	h.mu.Unlock()
	c.close()
}

func (h *Hub) joinLocked(c *client, group string) {
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*client]struct{})
		h.groups[group] = members
	}
	members[c] = struct{}{}
}

func (h *Hub) join(c *client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.joinLocked(c, group)
	}
}

func (h *Hub) leave(c *client, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[group]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// broadcast sends msg once to every client that belongs to at least one of groups
func (h *Hub) broadcast(groups []string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode notification", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make(map[*client]struct{})
	for _, g := range groups {
		for c := range h.groups[g] {
			targets[c] = struct{}{}
		}
	}
	h.mu.RUnlock()

	for c := range targets {
		if !c.enqueue(data) {
			h.logger.Warn("dropping slow websocket client", zap.String("user", c.user))
			h.unregister(c)
		}
	}
}

func (h *Hub) sendStatus(c *client) {
	status := &Status{TotalAmount: valueobject.Zero().String()}
	if h.balance != nil {
		ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
		defer cancel()
		balance, updated, err := h.balance(ctx)
		if err != nil {
			h.logger.Warn("failed to read balance for status", zap.Error(err))
		} else {
			status.TotalAmount = balance.String()
			if !updated.IsZero() {
				status.LastUpdated = &updated
			}
		}
	}
	h.reply(c, Message{Type: TypeCaisseStatus, GlobalCaisse: status})
}

func (h *Hub) reply(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if !c.enqueue(data) {
		h.unregister(c)
	}
}

// handleClientMessage serves the small client protocol
func (h *Hub) handleClientMessage(c *client, data []byte) {
	var in clientMessage
	if err := json.Unmarshal(data, &in); err != nil {
		h.reply(c, Message{Type: TypeError, Message: "Invalid JSON format"})
		return
	}
	switch in.Type {
	case ClientSubscribeProject:
		if !validProjectID(in.ProjectID) {
			h.reply(c, Message{Type: TypeError, Message: "Invalid project_id"})
			return
		}
		h.join(c, ProjectGroup(in.ProjectID))
		h.reply(c, Message{
			Type:      TypeSubscriptionSuccess,
			ProjectID: in.ProjectID,
			Message:   "Subscribed to project " + in.ProjectID + " notifications",
		})
	case ClientUnsubscribeProject:
		if !validProjectID(in.ProjectID) {
			h.reply(c, Message{Type: TypeError, Message: "Invalid project_id"})
			return
		}
		h.leave(c, ProjectGroup(in.ProjectID))
		h.reply(c, Message{
			Type:      TypeUnsubscriptionSuccess,
			ProjectID: in.ProjectID,
			Message:   "Unsubscribed from project " + in.ProjectID + " notifications",
		})
	case ClientGetStatus:
		h.sendStatus(c)
	default:
		h.reply(c, Message{Type: TypeError, Message: "Unknown message type"})
	}
}

var _ shared.EventHandler = (*Hub)(nil)
