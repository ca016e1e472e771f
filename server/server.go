package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"
)

var uuidPathRe = regexp.MustCompile(`^/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		// SPA: serve index.html for root and UUID paths
		if r.URL.Path == "/" || uuidPathRe.MatchString(r.URL.Path) {
			http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	// Controller pairing: /qr/<sid> is a PNG that opens the phone controller
	mux.HandleFunc("/qr/", func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimPrefix(r.URL.Path, "/qr/")
		if !ValidSessionID(sid) {
			http.NotFound(w, r)
			return
		}
		sess := hub.sessions.GetSession(sid)
		if sess == nil {
			http.NotFound(w, r)
			return
		}
		pilotID := sess.Game.PilotID()
		if pilotID == "" {
			http.Error(w, "no pilot in session", http.StatusConflict)
			return
		}
		png, err := ControllerQR(baseURL(hub.publicURL, r), sid, pilotID)
		if err != nil {
			log.Printf("qr error: %v", err)
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(png)
	})

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(hub.Stats())
	})

	return mux
}

// baseURL picks the configured public URL, or derives one from the request
func baseURL(public string, r *http.Request) string {
	if public != "" {
		return strings.TrimSuffix(public, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// ServerStats is served at /api/stats
type ServerStats struct {
	Sessions    int            `json:"sessions"`
	Clients     int            `json:"clients"`
	Online      int            `json:"online"`
	Uptime      string         `json:"uptime"`
	DAU         int            `json:"dau"`
	MAU         int            `json:"mau"`
	Events      map[string]int `json:"events,omitempty"`
	Runs        *RunSummary    `json:"runs,omitempty"`
	EventsTotal string         `json:"events_total,omitempty"`
}

// Stats gathers live counts and, when a database is attached, analytics
func (h *Hub) Stats() ServerStats {
	s := ServerStats{
		Sessions: h.sessions.Count(),
		Clients:  h.ClientCount(),
		Online:   h.OnlineCount(),
		Uptime:   strings.TrimSuffix(humanize.RelTime(h.started, time.Now(), "", ""), " "),
	}
	if h.analytics == nil {
		return s
	}
	var err error
	if s.DAU, err = h.analytics.DAUCount(); err != nil {
		log.Printf("stats: dau error: %v", err)
	}
	if s.MAU, err = h.analytics.MAUCount(); err != nil {
		log.Printf("stats: mau error: %v", err)
	}
	if s.Events, err = h.analytics.EventCounts(7); err != nil {
		log.Printf("stats: event counts error: %v", err)
	}
	total := 0
	for _, n := range s.Events {
		total += n
	}
	s.EventsTotal = humanize.Comma(int64(total))
	if s.Runs, err = h.analytics.RunSummary(7); err != nil {
		log.Printf("stats: run summary error: %v", err)
	}
	return s
}
