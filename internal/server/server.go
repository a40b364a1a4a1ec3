// Package server exposes the engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/duressd/duressd/internal/activity"
	"github.com/duressd/duressd/internal/auth"
	"github.com/duressd/duressd/internal/dms"
	"github.com/duressd/duressd/internal/identity"
	"github.com/duressd/duressd/pkg/errclass"
	"github.com/duressd/duressd/pkg/logging"
	"github.com/duressd/duressd/pkg/metrics"
	"github.com/duressd/duressd/pkg/model"
)

// WalletSeeder provisions the real/decoy wallet pair at enrollment.
type WalletSeeder interface {
	Seed(username string, realBalance, decoyBalance float64)
}

// Options wires the server's collaborators.
type Options struct {
	Auth       *auth.Authenticator
	Identities *identity.MemoryStore
	Wallets    WalletSeeder
	Switches   *dms.Supervisor
	Activity   *activity.Log
	Metrics    *metrics.Registry
	Logger     *logging.Logger
}

// Server handles the duressd HTTP API.
type Server struct {
	auth       *auth.Authenticator
	identities *identity.MemoryStore
	wallets    WalletSeeder
	switches   *dms.Supervisor
	activity   *activity.Log
	metrics    *metrics.Registry
	log        *logging.Logger
}

// New creates a server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(logging.LevelInfo)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	return &Server{
		auth:       opts.Auth,
		identities: opts.Identities,
		wallets:    opts.Wallets,
		switches:   opts.Switches,
		activity:   opts.Activity,
		metrics:    opts.Metrics,
		log:        opts.Logger,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/setup", s.handleSetup).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/switch", s.handleSwitchCreate).Methods(http.MethodPost)
	r.HandleFunc("/api/switch", s.handleSwitchGet).Methods(http.MethodGet)
	r.HandleFunc("/api/switch", s.handleSwitchDelete).Methods(http.MethodDelete)
	r.HandleFunc("/api/switch/checkin", s.handleCheckIn).Methods(http.MethodPost)
	r.HandleFunc("/api/switch/enable", s.handleSwitchEnable).Methods(http.MethodPost)
	r.HandleFunc("/api/switch/disable", s.handleSwitchDisable).Methods(http.MethodPost)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	return r
}

type setupRequest struct {
	Username          string   `json:"username"`
	Secret            string   `json:"secret"`
	DuressCode        string   `json:"duress_code"`
	EmergencyContacts []string `json:"emergency_contacts,omitempty"`
	RealBalance       float64  `json:"real_balance"`
	DecoyBalance      float64  `json:"decoy_balance"`
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, errclass.ErrNameInvalid.WithMessage("malformed request body"))
		return
	}

	rec, err := s.identities.Enroll(identity.EnrollParams{
		Username:          req.Username,
		NormalSecret:      req.Secret,
		DuressCode:        req.DuressCode,
		EmergencyContacts: req.EmergencyContacts,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.wallets.Seed(rec.Username, req.RealBalance, req.DecoyBalance)

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"username": rec.Username,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// loginResponse deliberately omits the classification: a duress login
// must be indistinguishable from a normal one to whoever is watching
// the screen.
type loginResponse struct {
	Success bool          `json:"success"`
	Wallet  *model.Wallet `json:"wallet"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, errclass.ErrCredentialRejected.WithMessage("malformed request body"))
		return
	}

	res, err := s.auth.Authenticate(req.Username, req.Secret)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loginResponse{Success: true, Wallet: res.Wallet})
}

type switchRequest struct {
	Username string `json:"username"`
	Interval string `json:"interval,omitempty"`
}

func (s *Server) handleSwitchCreate(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, errclass.ErrInvalidInterval.WithMessage("malformed request body"))
		return
	}

	interval, err := time.ParseDuration(req.Interval)
	if err != nil {
		s.writeError(w, errclass.ErrInvalidInterval.WithMessagef("bad interval %q", req.Interval))
		return
	}

	st, err := s.switches.Create(req.Username, interval)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleSwitchGet(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		s.writeJSON(w, http.StatusOK, s.switches.List())
		return
	}

	st, err := s.switches.Status(username)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSwitchDelete(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if err := s.switches.Delete(username); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"deleted": username})
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	s.switchAction(w, r, s.switches.CheckIn)
}

func (s *Server) handleSwitchEnable(w http.ResponseWriter, r *http.Request) {
	s.switchAction(w, r, s.switches.Enable)
}

func (s *Server) handleSwitchDisable(w http.ResponseWriter, r *http.Request) {
	s.switchAction(w, r, s.switches.Disable)
}

func (s *Server) switchAction(w http.ResponseWriter, r *http.Request, fn func(string) (*model.SwitchStatus, error)) {
	var req switchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, errclass.ErrSwitchNotFound.WithMessage("malformed request body"))
		return
	}

	st, err := fn(req.Username)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"activity": s.activity.Statistics(),
		"counters": s.metrics.Snapshot(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.ErrorErr("encode response", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "E_INTERNAL"

	var core *errclass.CoreError
	if errors.As(err, &core) {
		code = core.Code
		status = statusFor(core)
	}

	s.log.Warn("request failed", map[string]any{
		"code":  code,
		"error": err.Error(),
	})
	s.writeJSON(w, status, map[string]any{
		"error": err.Error(),
		"code":  code,
	})
}

func statusFor(err *errclass.CoreError) int {
	switch {
	case errors.Is(err, errclass.ErrCredentialRejected):
		return http.StatusUnauthorized
	case errors.Is(err, errclass.ErrIdentityNotFound),
		errors.Is(err, errclass.ErrSwitchNotFound),
		errors.Is(err, errclass.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, errclass.ErrIdentityExists),
		errors.Is(err, errclass.ErrSwitchExists),
		errors.Is(err, errclass.ErrAlreadyTriggered),
		errors.Is(err, errclass.ErrDuressCodeCollision):
		return http.StatusConflict
	case errors.Is(err, errclass.ErrNameInvalid),
		errors.Is(err, errclass.ErrInvalidInterval):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
