package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrpdigital/office-portal/internal/domain/letter"
	"github.com/mrpdigital/office-portal/internal/domain/user"
	"github.com/mrpdigital/office-portal/internal/reconcile"
	"github.com/mrpdigital/office-portal/internal/remote"
)

// Settings is the slice of the settings store the admin endpoints use.
type Settings interface {
	Remote(ctx context.Context) (remote.Config, error)
	SetRemote(ctx context.Context, overrides remote.Config) error
	Overrides(ctx context.Context) (remote.Config, error)
}

// Server wires HTTP handlers for the portal API.
type Server struct {
	letters   *letter.Service
	users     *user.Service
	reconcile *reconcile.Controller
	settings  Settings
	logger    *slog.Logger
}

// NewServer creates the portal router.
func NewServer(letters *letter.Service, users *user.Service, rc *reconcile.Controller, settings Settings, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		letters:   letters,
		users:     users,
		reconcile: rc,
		settings:  settings,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestLogger(logger))

	r.Get("/health", srv.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", srv.handleLogin)

		r.Route("/letters", func(r chi.Router) {
			r.Get("/", srv.handleListLetters)
			r.Post("/", srv.handleCreateLetter)
			r.Get("/{id}", srv.handleGetLetter)
			r.Patch("/{id}", srv.handleUpdateLetter)
			r.Delete("/{id}", srv.handleDeleteLetter)
			r.Post("/{id}/files", srv.handleAttachFile)
			r.Delete("/{id}/files/{name}", srv.handleRemoveAttachment)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/refresh", srv.handleSyncRefresh)
			r.Get("/status", srv.handleSyncStatus)
			r.Get("/ping", srv.handleSyncPing)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", srv.handleListUsers)
			r.Post("/", srv.handleCreateUser)
			r.Delete("/{id}", srv.handleDeleteUser)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", srv.handleGetSettings)
			r.Put("/", srv.handlePutSettings)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := s.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleListLetters(w http.ResponseWriter, r *http.Request) {
	opts := letter.ListOptions{
		Term:     r.URL.Query().Get("search"),
		TypeCode: letter.TypeCode(r.URL.Query().Get("type")),
	}
	letters, err := s.letters.List(r.Context(), opts)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, letters)
}

type createLetterRequest struct {
	Date        string `json:"date"`
	TypeCode    string `json:"typeCode"`
	CompanyName string `json:"companyName"`
	Requestor   string `json:"requestor"`
	Subject     string `json:"subject"`

	MaterialInquired   string `json:"materialInquired"`
	ProjectName        string `json:"projectName"`
	StartDate          string `json:"startDate"`
	Transportation     string `json:"transportation"`
	InstallerNames     string `json:"installerNames"`
	ContactPersonName  string `json:"contactPersonName"`
	ContactPersonPhone string `json:"contactPersonPhone"`
	CompanyRequested   string `json:"companyRequested"`
	PICName            string `json:"picName"`
	ExpirationDate     string `json:"expirationDate"`
}

func (s *Server) handleCreateLetter(w http.ResponseWriter, r *http.Request) {
	var req createLetterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var date letter.Date
	if req.Date != "" {
		parsed, err := letter.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = parsed
	}

	l, err := s.letters.Create(r.Context(), letter.CreateRequest{
		Date:        date,
		TypeCode:    letter.TypeCode(req.TypeCode),
		CompanyName: req.CompanyName,
		Requestor:   req.Requestor,
		Subject:     req.Subject,

		MaterialInquired:   req.MaterialInquired,
		ProjectName:        req.ProjectName,
		StartDate:          req.StartDate,
		Transportation:     req.Transportation,
		InstallerNames:     req.InstallerNames,
		ContactPersonName:  req.ContactPersonName,
		ContactPersonPhone: req.ContactPersonPhone,
		CompanyRequested:   req.CompanyRequested,
		PICName:            req.PICName,
		ExpirationDate:     req.ExpirationDate,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleGetLetter(w http.ResponseWriter, r *http.Request) {
	l, err := s.letters.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type updateLetterRequest struct {
	Date        *string `json:"date"`
	TypeCode    *string `json:"typeCode"`
	CompanyName *string `json:"companyName"`
	Requestor   *string `json:"requestor"`
	Subject     *string `json:"subject"`

	MaterialInquired   *string `json:"materialInquired"`
	ProjectName        *string `json:"projectName"`
	StartDate          *string `json:"startDate"`
	Transportation     *string `json:"transportation"`
	InstallerNames     *string `json:"installerNames"`
	ContactPersonName  *string `json:"contactPersonName"`
	ContactPersonPhone *string `json:"contactPersonPhone"`
	CompanyRequested   *string `json:"companyRequested"`
	PICName            *string `json:"picName"`
	ExpirationDate     *string `json:"expirationDate"`
}

func (s *Server) handleUpdateLetter(w http.ResponseWriter, r *http.Request) {
	var req updateLetterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := letter.UpdateRequest{
		CompanyName: req.CompanyName,
		Requestor:   req.Requestor,
		Subject:     req.Subject,

		MaterialInquired:   req.MaterialInquired,
		ProjectName:        req.ProjectName,
		StartDate:          req.StartDate,
		Transportation:     req.Transportation,
		InstallerNames:     req.InstallerNames,
		ContactPersonName:  req.ContactPersonName,
		ContactPersonPhone: req.ContactPersonPhone,
		CompanyRequested:   req.CompanyRequested,
		PICName:            req.PICName,
		ExpirationDate:     req.ExpirationDate,
	}
	if req.Date != nil {
		parsed, err := letter.ParseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.Date = &parsed
	}
	if req.TypeCode != nil {
		code := letter.TypeCode(*req.TypeCode)
		if !code.Valid() {
			writeError(w, http.StatusBadRequest, "unknown type code")
			return
		}
		patch.TypeCode = &code
	}

	l, err := s.letters.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteLetter(w http.ResponseWriter, r *http.Request) {
	if err := s.letters.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type attachFileRequest struct {
	FileData string `json:"fileData"`
	MimeType string `json:"mimeType"`
}

func (s *Server) handleAttachFile(w http.ResponseWriter, r *http.Request) {
	var req attachFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.FileData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "fileData must be base64")
		return
	}

	l, err := s.letters.AttachFile(r.Context(), chi.URLParam(r, "id"), data, req.MimeType)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	l, err := s.letters.RemoveAttachment(r.Context(), chi.URLParam(r, "id"), name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleSyncRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.reconcile.Hydrate(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, s.reconcile.Status())
		return
	}
	writeJSON(w, http.StatusOK, s.reconcile.Status())
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reconcile.Status())
}

func (s *Server) handleSyncPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"reachable": s.reconcile.Ping(r.Context())})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	FullName   string `json:"fullName"`
	Department string `json:"department"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := s.users.Create(r.Context(), user.CreateRequest{
		Username:   req.Username,
		Password:   req.Password,
		Role:       user.Role(req.Role),
		FullName:   req.FullName,
		Department: req.Department,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settingsResponse struct {
	Overrides remote.Config `json:"overrides"`
	Effective remote.Config `json:"effective"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	overrides, err := s.settings.Overrides(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	effective, err := s.settings.Remote(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Overrides: overrides, Effective: effective})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var overrides remote.Config
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.settings.SetRemote(r.Context(), overrides); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.handleGetSettings(w, r)
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, letter.ErrLetterNotFound), errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, letter.ErrInvalidInput), errors.Is(err, user.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrProtectedUser):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, remote.ErrUnreachable), errors.Is(err, remote.ErrNotConfigured):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
			)
		})
	}
}
