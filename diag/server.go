// Package diag serves an optional single-page diagnostics view: a websocket
// that pushes the engine's current board.Snapshot to a connected browser at
// a fixed cadence. Adapted from server/server.go's Server/serveWebsocket/
// publishEleUpdates, trading that package's RL-grid-state channel for a
// periodic poll of the live board, and its cell_views/fastview/root_view
// template stack for a single embedded HTML page (this server has exactly
// one view, so the teacher's generalized ViewComponent layering has nothing
// left to generalize over).
package diag

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"

	"gongtp/board"
)

const (
	writeWait      = 1 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	pushResolution = 200 * time.Millisecond
)

var upgrader = websocket.Upgrader{}

// BoardSource is the subset of engine.Engine a diagnostics Server polls for
// snapshots and search diagnostics. Declared locally so this package has no
// compile-time dependency on the engine package's scorer/search wiring.
type BoardSource interface {
	Board() *board.Board
	Stats() string
}

// Server serves a single realtime board view; every websocket connection
// gets its own push loop, and the number of connected clients is not
// limited.
type Server struct {
	addr   string
	source BoardSource
	srv    *http.Server
}

// New builds a diagnostics Server listening on addr, polling source for
// board state.
func New(addr string, source BoardSource) *Server {
	s := &Server{addr: addr, source: source}
	router := mux.NewRouter()
	router.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/board.svg", s.serveBoardSVG).Methods(http.MethodGet)
	router.HandleFunc("/stats", s.serveStats).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.serveWebsocket)
	s.srv = &http.Server{Addr: addr, Handler: router}
	return s
}

// Serve blocks until ctx is cancelled or the HTTP server fails to start,
// then shuts the server down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(indexHTML))
}

// serveBoardSVG renders a single static snapshot of the current board as
// SVG, for quick inspection without opening the websocket view.
func (s *Server) serveBoardSVG(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Board().Snapshot()
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write([]byte(RenderSVG(ConvertSnapshot(snap))))
}

// serveStats reports the engine's search diagnostics (event counters and
// score-spread histogram when running MCTS; empty for the simple policy).
func (s *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(s.source.Stats()))
}

// serveWebsocket upgrades the connection and pushes board.Snapshot JSON at
// pushResolution, watching for pongs the way server/server.go's
// publishEleUpdates does, until the client disconnects.
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("diag: upgrade failed:", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	lastPong := time.Now()
	pong := make(chan struct{})
	ws.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		case <-ctx.Done():
		}
		return nil
	})

	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	pusher := channerics.NewTicker(ctx.Done(), pushResolution)
	pinger := channerics.NewTicker(ctx.Done(), pingPeriod)

	for {
		select {
		case <-ctx.Done():
			return
		case <-pinger:
			if time.Since(lastPong) > pingPeriod*2 {
				log.Println("diag: client unresponsive, closing")
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-pong:
			lastPong = time.Now()
		case <-pusher:
			snap := s.source.Board().Snapshot()
			payload, err := json.Marshal(snap)
			if err != nil {
				log.Println("diag: marshal snapshot:", err)
				continue
			}
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>gongtp diagnostics</title></head>
<body>
<pre id="board">connecting...</pre>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => {
  const snap = JSON.parse(ev.data);
  let out = "";
  for (let y = snap.Height - 1; y >= 0; y--) {
    for (let x = 0; x < snap.Width; x++) {
      const c = snap.Stones[y * snap.Width + x];
      out += c === 1 ? "X " : c === 2 ? "O " : ". ";
    }
    out += "\n";
  }
  document.getElementById("board").textContent = out;
};
</script>
</body>
</html>`
