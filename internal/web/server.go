// Package web serves the sensor status page, JSON state API and SSE stream.
package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/hausmon/coinbase-sensor/internal/hub"
)

const statePollInterval = 2 * time.Second

type entityStateReader interface {
	States() []hub.EntityState
	StatesAfter(index uint64) []hub.EntityStateRecord
}

// Server exposes HTTP endpoints serving the HTML UI, a JSON state API and
// an SSE stream of published entity states.
type Server struct {
	Addr    string
	Store   entityStateReader
	Metrics http.Handler
}

// NewServer creates a new web server instance. metrics may be nil to skip
// the /metrics route.
func NewServer(addr string, store entityStateReader, metrics http.Handler) *Server {
	return &Server{Addr: addr, Store: store, Metrics: metrics}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/states", s.handleStates)
	mux.HandleFunc("/states/stream", s.handleStateStream)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics)
	}

	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via
// ACME. It also starts an HTTP server on port 80 to handle ACME HTTP-01
// challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	// HTTP server on port 80 for ACME challenges and HTTP->HTTPS redirects.
	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http (acme) server shutdown error: %v", err)
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("https server shutdown error: %v", err)
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http (acme) server error: %v", err)
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleStates(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "state store not available")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Store.States()); err != nil {
		log.Printf("encode states: %v", err)
	}
}

func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "state store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(statePollInterval)
	defer pollTicker.Stop()

	lastIndex := parseLastEventID(r.Header.Get("Last-Event-ID"), r.URL.Query().Get("last_event_id"))
	sendStates := func() error {
		for _, record := range s.Store.StatesAfter(lastIndex) {
			payload, err := json.Marshal(record.State)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %d\n", record.Index)
			fmt.Fprintf(w, "event: state\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendStates(); err != nil {
		http.Error(w, "failed to load states", http.StatusInternalServerError)
		log.Printf("state stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendStates(); err != nil {
				log.Printf("state stream poll err: %v", err)
			}
		}
	}
}

// parseLastEventID extracts an SSE event ID from either the Last-Event-ID
// header or a query parameter. The header is preferred; the query parameter
// allows manual reconnects to resume from a known index.
func parseLastEventID(headerVal, queryVal string) uint64 {
	idStr := strings.TrimSpace(headerVal)
	if idStr == "" {
		idStr = strings.TrimSpace(queryVal)
	}
	if idStr == "" {
		return 0
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		log.Printf("invalid last event id %q: %v", idStr, err)
		return 0
	}
	return id
}

// Status page with one card per sensor, fed by the SSE stream.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Coinbase Sensors</title>
  <link rel="preconnect" href="https://fonts.googleapis.com">
  <link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
  <link href="https://fonts.googleapis.com/css2?family=Space+Mono:wght@400;700&display=swap" rel="stylesheet">
  <style>
    body {
      margin:0;
      padding:2rem;
      background:#ffffff;
      color:#111111;
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    h1 {
      font-size:.8rem;
      text-transform:uppercase;
      letter-spacing:.2em;
      margin:0 0 1rem;
    }
    #status {
      font-size:.65rem;
      text-transform:uppercase;
      letter-spacing:.1em;
      border:2px solid #111;
      padding:.4rem .9rem;
      display:inline-block;
      box-shadow:4px 4px 0 rgba(0,0,0,.15);
    }
    .grid {
      display:grid;
      grid-template-columns:repeat(auto-fit, minmax(300px, 1fr));
      gap:1.5rem;
      margin-top:2rem;
    }
    .card {
      border:3px solid #111;
      padding:1.2rem;
      background:#fff;
      box-shadow:8px 8px 0 rgba(0,0,0,.15);
    }
    .card h2 {
      font-size:.75rem;
      letter-spacing:.08em;
      margin:0 0 .8rem;
      word-break:break-word;
    }
    .card .state { font-size:1.6rem; font-weight:700; letter-spacing:.05em; }
    .card .unit { color:#4d4d4d; font-size:.9rem; }
    .attrs {
      margin-top:.8rem;
      font-size:.6rem;
      color:#4d4d4d;
      line-height:1.7;
      word-break:break-word;
    }
  </style>
</head>
<body>
  <h1>coinbase sensors</h1>
  <div id="status">Connecting…</div>
  <div id="grid" class="grid"></div>
<script>
const statusEl = document.getElementById('status');
const grid = document.getElementById('grid');
const cards = new Map();

function render(state){
  let card = cards.get(state.id);
  if(!card){
    card = document.createElement('div');
    card.className = 'card';
    card.innerHTML = '<h2></h2><div><span class="state"></span> <span class="unit"></span></div><div class="attrs"></div>';
    grid.appendChild(card);
    cards.set(state.id, card);
  }
  card.querySelector('h2').textContent = state.name;
  card.querySelector('.state').textContent = state.state || 'n/a';
  card.querySelector('.unit').textContent = state.unit || '';
  const attrs = state.attributes || {};
  card.querySelector('.attrs').textContent = Object.keys(attrs).sort()
    .map((key) => key + ': ' + attrs[key]).join('  |  ');
}

function connectSSE(){
  const source = new EventSource('/states/stream');
  source.addEventListener('state', (event) => {
    try{
      render(JSON.parse(event.data));
      statusEl.textContent = 'Live';
    }catch(err){
      console.error('payload parse', err);
    }
  });
  source.addEventListener('error', () => {
    statusEl.textContent = 'Reconnecting…';
    source.close();
    setTimeout(connectSSE, 2000);
  });
}

connectSSE();
</script>
</body>
</html>`
