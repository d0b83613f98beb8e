// Package server composes the roomdesk stores, services, and transports into
// one process.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	entrypoint "github.com/roomdesk/roomdesk/internal/platform/cmd"
	platformgrpc "github.com/roomdesk/roomdesk/internal/platform/grpc"
	"github.com/roomdesk/roomdesk/internal/platform/httpx"
	"github.com/roomdesk/roomdesk/internal/platform/id"
	"github.com/roomdesk/roomdesk/internal/platform/metrics"
	"github.com/roomdesk/roomdesk/internal/platform/timeouts"
	"github.com/roomdesk/roomdesk/internal/services/auth/account"
	authhttp "github.com/roomdesk/roomdesk/internal/services/auth/api/httpapi"
	"github.com/roomdesk/roomdesk/internal/services/auth/oauth"
	"github.com/roomdesk/roomdesk/internal/services/auth/session"
	authsqlite "github.com/roomdesk/roomdesk/internal/services/auth/storage/sqlite"
	notificationshttp "github.com/roomdesk/roomdesk/internal/services/notifications/api/httpapi"
	notificationsapp "github.com/roomdesk/roomdesk/internal/services/notifications/app"
	"github.com/roomdesk/roomdesk/internal/services/notifications/delivery"
	notificationsdomain "github.com/roomdesk/roomdesk/internal/services/notifications/domain"
	notificationssqlite "github.com/roomdesk/roomdesk/internal/services/notifications/storage/sqlite"
	reservationhttp "github.com/roomdesk/roomdesk/internal/services/reservation/api/httpapi"
	reservationapp "github.com/roomdesk/roomdesk/internal/services/reservation/app"
	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
	"github.com/roomdesk/roomdesk/internal/services/reservation/realtime"
	reservationsqlite "github.com/roomdesk/roomdesk/internal/services/reservation/storage/sqlite"
)

// HealthService is the health-check name reported once the HTTP server is up.
const HealthService = "roomdesk.v1.Reservations"

const (
	defaultHTTPAddr       = ":8080"
	defaultDBPath         = "data/roomdesk.db"
	defaultAdminName      = "Administrator"
	oauthCleanupInterval  = 5 * time.Minute
	defaultSessionTTL     = 12 * time.Hour
	defaultMailPoll       = 5 * time.Second
	defaultMailMaxAttempt = 6
)

// RuntimeConfig controls server startup and its dependencies.
type RuntimeConfig struct {
	HTTPAddr         string
	HealthPort       int
	DBPath           string
	SessionSecret    string
	SessionTTL       time.Duration
	Issuer           string
	PublicURL        string
	AllowedOrigins   []string
	AdminEmail       string
	AdminPassword    string
	AdminName        string
	NATSURL          string
	NATSSubject      string
	SMTPAddr         string
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
	MailPollInterval time.Duration
	MailMaxAttempts  int
	// Sender overrides the mail transport chosen from the SMTP settings.
	Sender delivery.Sender
	// MailLogger receives mail when no SMTP relay is configured.
	MailLogger *log.Logger
}

// Server hosts the roomdesk HTTP API, push channel, and mail worker.
type Server struct {
	httpListener net.Listener
	httpServer   *http.Server
	health       *platformgrpc.HealthServer
	worker       *delivery.Worker
	flow         *oauth.Flow
	relay        *realtime.NATSRelay
	natsConn     *nats.Conn

	accounts *account.Service
	bookings *domain.Service
	metrics  *metrics.Metrics
	closers  []func() error
}

// New opens storage, builds services, and binds listeners.
func New(ctx context.Context, cfg RuntimeConfig) (_ *Server, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = withDefaults(cfg)

	s := &Server{metrics: metrics.New()}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	authStore, err := authsqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open auth sqlite store: %w", err)
	}
	s.closers = append(s.closers, authStore.Close)
	reservationStore, err := reservationsqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open reservation sqlite store: %w", err)
	}
	s.closers = append(s.closers, reservationStore.Close)
	notificationStore, err := notificationssqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open notifications sqlite store: %w", err)
	}
	s.closers = append(s.closers, notificationStore.Close)

	sessions, err := session.NewManager(session.Config{
		Secret: []byte(cfg.SessionSecret),
		Issuer: cfg.Issuer,
		TTL:    cfg.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("configure sessions: %w", err)
	}
	s.accounts = account.NewService(authStore, sessions, account.WithProviderStore(authStore))
	if err := bootstrapAdmin(ctx, s.accounts, cfg); err != nil {
		return nil, err
	}

	oauthConfig, err := oauth.LoadConfigFromEnv(cfg.PublicURL)
	if err != nil {
		return nil, err
	}
	var providers authhttp.Providers
	if len(oauthConfig.Providers) > 0 {
		s.flow = oauth.NewFlow(oauthConfig, authStore)
		providers = s.flow
	}

	origin, err := id.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate instance id: %w", err)
	}
	hub := realtime.NewHub(origin, realtime.WithHubRecorder(s.metrics))
	if strings.TrimSpace(cfg.NATSURL) != "" {
		conn, err := realtime.ConnectNATS(cfg.NATSURL, entrypoint.ServiceServer+"-"+origin)
		if err != nil {
			return nil, err
		}
		s.natsConn = conn
		s.relay = realtime.NewNATSRelay(conn, hub, cfg.NATSSubject)
		if err := s.relay.Start(); err != nil {
			return nil, err
		}
	}

	sender := mailSender(cfg)
	inbox := notificationsdomain.NewService(notificationsapp.NewDomainStore(notificationStore, sender != nil), nil, nil)
	notifier := reservationapp.NewNotifier(inbox, s.accounts, reservationStore)
	s.bookings = domain.NewService(reservationStore,
		domain.WithPublisher(hub),
		domain.WithNotifier(notifier),
		domain.WithRecorder(s.metrics),
	)

	s.worker = delivery.NewWorker(notificationStore, sender, delivery.Config{
		PollInterval: cfg.MailPollInterval,
		MaxAttempts:  cfg.MailMaxAttempts,
	}, delivery.WithRecorder(s.metrics))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("GET /ws/reservations", realtime.NewWebsocketHandler(hub,
		realtime.WithConnRecorder(s.metrics),
		realtime.WithAllowedOrigins(append([]string{cfg.PublicURL}, cfg.AllowedOrigins...)...),
	))
	authhttp.NewHandler(s.accounts, providers).RegisterRoutes(mux)
	reservationhttp.NewHandler(s.bookings).RegisterRoutes(mux)
	notificationshttp.NewHandler(inbox).RegisterRoutes(mux)

	handler := httpx.Chain(mux,
		httpx.RequestID(),
		httpx.RecoverPanic(),
		httpx.RequestLogger(log.Default()),
		httpx.Trace(entrypoint.ServiceServer),
		authhttp.Authenticate(s.accounts),
	)

	s.httpListener, err = net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}
	s.health, err = platformgrpc.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), HealthService)
	if err != nil {
		return nil, err
	}
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return s, nil
}

// Addr returns the bound HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the bound health listener address.
func (s *Server) HealthAddr() string {
	if s == nil {
		return ""
	}
	return s.health.Addr()
}

// Run creates and serves a roomdesk server until the context ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs every listener and background loop. It blocks until ctx ends or
// one of them fails, then shuts the rest down.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.close()

	healthErr := make(chan error, 1)
	go func() {
		healthErr <- s.health.Serve(serverCtx)
	}()
	workerErr := make(chan error, 1)
	go func() {
		workerErr <- s.worker.Run(serverCtx)
	}()
	if s.flow != nil {
		go s.cleanupProviderStates(serverCtx)
	}

	log.Printf("roomdesk HTTP server listening at %v", s.httpListener.Addr())
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()
	s.health.SetServing("", true)
	s.health.SetServing(HealthService, true)

	shutdownHTTP := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
	}

	var (
		serveErr   error
		httpDone   bool
		healthDone bool
		workerDone bool
	)
	select {
	case <-ctx.Done():
	case err := <-httpErr:
		httpDone = true
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("serve HTTP: %w", err)
		}
	case err := <-healthErr:
		healthDone = true
		serveErr = err
	case err := <-workerErr:
		workerDone = true
		if err != nil && !errors.Is(err, context.Canceled) {
			serveErr = fmt.Errorf("mail worker: %w", err)
		}
	}

	s.health.SetServing(HealthService, false)
	cancel()
	shutdownHTTP()
	if !httpDone {
		<-httpErr
	}
	if !healthDone {
		<-healthErr
	}
	if !workerDone {
		<-workerErr
	}
	return serveErr
}

func (s *Server) cleanupProviderStates(ctx context.Context) {
	ticker := time.NewTicker(oauthCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.flow.Cleanup(ctx)
			if err != nil {
				log.Printf("oauth state cleanup: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("oauth state cleanup removed=%d", removed)
			}
		}
	}
}

func (s *Server) close() {
	if s == nil {
		return
	}
	if s.relay != nil {
		s.relay.Close()
	}
	if s.natsConn != nil {
		s.natsConn.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	s.health.Close()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("close store: %v", err)
		}
	}
	s.closers = nil
}

func withDefaults(cfg RuntimeConfig) RuntimeConfig {
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if strings.TrimSpace(cfg.PublicURL) == "" {
		cfg.PublicURL = publicURLFromAddr(cfg.HTTPAddr)
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		cfg.Issuer = cfg.PublicURL
	}
	if strings.TrimSpace(cfg.AdminName) == "" {
		cfg.AdminName = defaultAdminName
	}
	if cfg.MailPollInterval <= 0 {
		cfg.MailPollInterval = defaultMailPoll
	}
	if cfg.MailMaxAttempts <= 0 {
		cfg.MailMaxAttempts = defaultMailMaxAttempt
	}
	return cfg
}

func publicURLFromAddr(httpAddr string) string {
	addr := strings.TrimSpace(httpAddr)
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func mailSender(cfg RuntimeConfig) delivery.Sender {
	if cfg.Sender != nil {
		return cfg.Sender
	}
	if strings.TrimSpace(cfg.SMTPAddr) == "" {
		logger := cfg.MailLogger
		if logger == nil {
			logger = log.Default()
		}
		return delivery.LogSender{Logger: logger}
	}
	return delivery.SMTPSender{
		Addr:     cfg.SMTPAddr,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
}

func bootstrapAdmin(ctx context.Context, accounts *account.Service, cfg RuntimeConfig) error {
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" {
		return nil
	}
	if cfg.AdminPassword == "" {
		return errors.New("admin password is required when an admin email is set")
	}
	admin, err := accounts.EnsureAdmin(ctx, email, cfg.AdminPassword, cfg.AdminName)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Printf("admin ready user_id=%s email=%s", admin.ID, admin.Email)
	return nil
}
