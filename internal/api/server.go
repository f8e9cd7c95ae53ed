// Package api serves the shop state over HTTP for the browser frontend.
// GET endpoints are public, read-only observation; POST endpoints require
// a bearer token. The server subscribes read-only to the bus for its
// notification feed and never mutates simulation state directly.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ironquill/forgeward/internal/bus"
	"github.com/ironquill/forgeward/internal/engine"
)

const notificationRing = 100

// Server exposes the shop over HTTP.
type Server struct {
	Shop     *engine.Shop
	Eng      *engine.Engine
	Port     int
	AdminKey string // bearer token for POST endpoints; empty disables them

	mu   sync.Mutex
	feed []notification
	seq  uint64
}

type notification struct {
	Seq     uint64    `json:"seq"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Start subscribes the feed and begins serving in a goroutine.
func (s *Server) Start() {
	s.Shop.Bus.Subscribe(bus.TopicNotify, func(payload any) {
		n, ok := payload.(bus.Notify)
		if !ok {
			return
		}
		s.mu.Lock()
		s.seq++
		s.feed = append(s.feed, notification{
			Seq:     s.seq,
			Level:   string(n.Level),
			Message: n.Message,
			At:      time.Now(),
		})
		if len(s.feed) > notificationRing {
			s.feed = s.feed[len(s.feed)-notificationRing:]
		}
		s.mu.Unlock()
	})

	adminLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/inventory", s.handleInventory)
	mux.HandleFunc("GET /api/v1/storefront", s.handleStorefront)
	mux.HandleFunc("GET /api/v1/contracts", s.handleContracts)
	mux.HandleFunc("GET /api/v1/workers", s.handleWorkers)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/blueprints", s.handleBlueprints)
	mux.HandleFunc("GET /api/v1/notifications", s.handleNotifications)

	mux.HandleFunc("POST /api/v1/save", s.adminOnly(Middleware(adminLimiter, s.handleSave)))
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(Middleware(adminLimiter, s.handleSpeed)))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled", http.StatusForbidden)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"tick":        s.Eng.Tick,
		"speed":       s.Eng.Speed,
		"day":         s.Shop.Clock.Day(),
		"hour":        s.Shop.Clock.Hour(),
		"minute":      s.Shop.Clock.Minute(),
		"work_hours":  s.Shop.Clock.IsWorkHours(),
		"money":       s.Shop.Ledger.Money(),
		"forge_level": s.Shop.Forge.Level(),
		"wage_debt":   s.Shop.Workforce.WageDebt(),
	})
}

func (s *Server) handleInventory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"materials": s.Shop.Ledger.Materials(),
		"items":     s.Shop.Ledger.Items(),
		"tools":     s.Shop.ToolWear.DurabilityDetails(),
	})
}

func (s *Server) handleStorefront(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"listings": s.Shop.Storefront.Listings()})
}

func (s *Server) handleContracts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"contracts": s.Shop.Contracts.Contracts()})
}

func (s *Server) handleWorkers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"workers":   s.Shop.Workforce.Workers(),
		"wage_debt": s.Shop.Workforce.WageDebt(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"active": s.Shop.Director.Active()})
}

func (s *Server) handleBlueprints(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"unlocked":     s.Shop.Catalog.UnlockedItems(),
		"for_purchase": s.Shop.Catalog.AvailableForPurchase(),
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	after, _ := strconv.ParseUint(r.URL.Query().Get("after"), 10, 64)
	s.mu.Lock()
	out := make([]notification, 0, len(s.feed))
	for _, n := range s.feed {
		if n.Seq > after {
			out = append(out, n)
		}
	}
	s.mu.Unlock()
	writeJSON(w, map[string]any{"notifications": out})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	slot := r.URL.Query().Get("slot")
	if slot == "" {
		http.Error(w, "slot required", http.StatusBadRequest)
		return
	}
	if err := s.Shop.Save(slot); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"saved": slot})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	speed, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil || speed < 0 || speed > 10 {
		http.Error(w, "value must be 0–10", http.StatusBadRequest)
		return
	}
	s.Eng.Speed = speed
	s.Shop.Clock.SetPaused(speed == 0)
	writeJSON(w, map[string]any{"speed": speed})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}
