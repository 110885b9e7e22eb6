// Package mobileapi serves the HTTP/WebSocket surface the mobile app talks
// to: chat, raw events, state inspection and a live state feed.
package mobileapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/keshon/companion/internal/conductor"
	"github.com/keshon/companion/internal/emotion"
	"github.com/keshon/companion/internal/version"
)

const platformName = "mobile"

// Server is the mobile-facing API.
type Server struct {
	engine   *emotion.Engine
	cond     *conductor.Conductor
	bc       *Broadcaster
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewServer builds the API over the engine and conductor.
func NewServer(engine *emotion.Engine, cond *conductor.Conductor, log zerolog.Logger) *Server {
	return &Server{
		engine: engine,
		cond:   cond,
		bc:     NewBroadcaster(),
		log:    log,
		upgrader: websocket.Upgrader{
			// Local personal service; the app connects from a webview.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// OnChange is wired as the engine's change callback so every state mutation
// reaches connected clients live.
func (s *Server) OnChange(snap emotion.Snapshot) {
	s.bc.Broadcast(snap)
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.Use(rateLimit(rate.Limit(10), 20))
	api.GET("/healthz", s.handleHealthz)
	api.GET("/state", s.handleState)
	api.GET("/modulation", s.handleModulation)
	api.POST("/chat", s.handleChat)
	api.POST("/events", s.handleEvent)
	api.POST("/code-activity", s.handleCodeActivity)
	api.GET("/ws", s.handleWS)
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
		s.bc.Close()
	}()

	s.log.Info().Str("addr", addr).Msg("mobile api listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "app": version.AppName, "version": version.Version})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleModulation(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Modulation())
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content" binding:"required"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	reply, err := s.cond.HandleMessage(c.Request.Context(), platformName, req.UserID, req.Content)
	switch {
	case errors.Is(err, conductor.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "catching my breath, try again shortly"})
	case err != nil:
		s.log.Error().Err(err).Msg("chat generation failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "generation failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"reply": reply})
	}
}

type eventRequest struct {
	Kind      string  `json:"kind" binding:"required"`
	Magnitude float64 `json:"magnitude"`
	Platform  string  `json:"platform"`
}

// handleEvent records a raw emotional event. Unknown kinds are loud, not
// silent: a typo in a caller should surface immediately.
func (s *Server) handleEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind is required"})
		return
	}
	kind, ok := emotion.EventKindByName(req.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event kind: " + req.Kind})
		return
	}
	if req.Platform == "" {
		req.Platform = platformName
	}

	ev := emotion.NewEvent(kind, req.Platform)
	if req.Magnitude > 0 {
		ev.Magnitude = req.Magnitude
	}
	snap, err := s.engine.RecordEvent(ev)
	if err != nil {
		// State is updated; only the save failed. Still a success for the
		// caller, so return the snapshot.
		s.log.Warn().Err(err).Msg("event recorded but not persisted")
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleCodeActivity(c *gin.Context) {
	s.cond.NotifyCodeActivity("code")
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

// handleWS streams snapshots: the current one on connect, then every change.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	ch := s.bc.Subscribe(16)
	defer func() {
		s.bc.Unsubscribe(ch)
		conn.Close()
	}()

	// Drain client frames so closes are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.engine.Snapshot()); err != nil {
		return
	}
	for snap := range ch {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(snap); err != nil {
			return
		}
	}
}
