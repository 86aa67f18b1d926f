// Package bridge is the trusted receiving half of the capture
// synchronization channel: a loopback-only HTTP endpoint the sandboxed
// capture agent delivers items through.
package bridge

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
)

// Ingestor persists a transformed item on behalf of the active session
type Ingestor interface {
	IngestItem(item *models.ResourceItem, content string) error
}

// Server receives capture payloads and hands them to the active session.
// The session handle is set and cleared through explicit lifecycle calls;
// with no session attached, deliveries are rejected so the agent queues
// them.
type Server struct {
	logger   *logrus.Entry
	engine   *gin.Engine
	portFile string

	mu      sync.Mutex
	session Ingestor
	httpSrv *http.Server
	port    int
}

// NewServer creates the bridge. portFile may be empty to skip port
// advertisement (useful in tests).
func NewServer(portFile string, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	s := &Server{
		logger:   logger.WithField("component", "sync-bridge"),
		portFile: portFile,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	// The caller is a local capture agent, not a public client; any origin
	// may preflight these endpoints.
	engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	engine.GET("/api/ping", s.handlePing)
	engine.POST("/api/sync", s.handleSync)
	engine.POST("/api/sync-one", s.handleSyncOne)

	s.engine = engine
	return s
}

// SetSession attaches the active session that persists incoming items
func (s *Server) SetSession(session Ingestor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// ClearSession detaches the session; subsequent deliveries are rejected
func (s *Server) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// currentSession returns the attached session, or nil
func (s *Server) currentSession() Ingestor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Handler exposes the router for in-process tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Port returns the bound port after Start
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Start binds the loopback interface and begins serving. port 0 picks a
// free port. The bound port is advertised through the port file.
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("bind loopback: %w", err)
	}
	bound := ln.Addr().(*net.TCPAddr).Port

	s.mu.Lock()
	s.port = bound
	s.httpSrv = &http.Server{Handler: s.engine}
	srv := s.httpSrv
	s.mu.Unlock()

	if s.portFile != "" {
		if err := WritePortFile(s.portFile, bound); err != nil {
			_ = ln.Close()
			return err
		}
	}

	s.logger.WithField("port", bound).Info("sync bridge listening")

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("sync bridge stopped unexpectedly")
		}
	}()
	return nil
}

// Shutdown stops the server and removes the port advertisement
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpSrv
	s.httpSrv = nil
	s.mu.Unlock()

	if s.portFile != "" {
		if err := RemovePortFile(s.portFile); err != nil {
			s.logger.WithError(err).Warn("could not remove port file")
		}
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSync ingests a batch of payloads. Every payload is accounted for in
// the synced/skipped counts; nothing is dropped silently.
func (s *Server) handleSync(c *gin.Context) {
	session := s.currentSession()
	if session == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "no active session"})
		return
	}

	var body struct {
		Items []models.SyncPayload `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json body"})
		return
	}

	synced, skipped := 0, 0
	for i := range body.Items {
		item, content := Transform(&body.Items[i])
		if err := session.IngestItem(item, content); err != nil {
			s.logger.WithError(err).WithField("item", item.ID).Warn("ingest failed, payload skipped")
			skipped++
			continue
		}
		synced++
	}

	c.JSON(http.StatusOK, gin.H{
		"success": skipped == 0,
		"synced":  synced,
		"skipped": skipped,
		"total":   len(body.Items),
	})
}

// handleSyncOne ingests a single payload
func (s *Server) handleSyncOne(c *gin.Context) {
	session := s.currentSession()
	if session == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "no active session"})
		return
	}

	var payload models.SyncPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json body"})
		return
	}

	item, content := Transform(&payload)
	if err := session.IngestItem(item, content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "action": "synced"})
}
