package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"lineup/internal/api"
	"lineup/internal/config"
	"lineup/internal/content"
	"lineup/internal/logging"
	"lineup/internal/schedule"
	"lineup/internal/services"
	"lineup/internal/staging"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	sessionSvc *api.SessionService
	jobSvc     *api.JobService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:       strings.TrimSpace(cfg.Paths.APIBind),
		logger:     logger,
		daemon:     d,
		sessionSvc: api.NewSessionService(d.registry),
		jobSvc:     api.NewJobService(d.jobs),
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.correlated(srv.handleStatus)))
	mux.HandleFunc("/api/sessions", authMiddleware(token, srv.correlated(srv.handleSessions)))
	mux.HandleFunc("/api/sessions/", authMiddleware(token, srv.correlated(srv.handleSessionItem)))
	mux.HandleFunc("/api/jobs", authMiddleware(token, srv.correlated(srv.handleJobs)))
	mux.HandleFunc("/api/jobs/", authMiddleware(token, srv.correlated(srv.handleJobItem)))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty; set paths.api_bind")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", slog.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// correlated attaches a correlation identifier to the request context so
// every log line emitted while serving it can be tied back together.
func (s *apiServer) correlated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := services.WithRequestID(r.Context(), uuid.NewString())
		next(w, r.WithContext(ctx))
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	sessions := make([]api.SessionSummary, 0, len(status.Sessions))
	for _, session := range status.Sessions {
		sessions = append(sessions, api.SummarizeSession(session))
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DraftDBPath:  status.DraftDBPath,
		JobDBPath:    status.JobDBPath,
		LockFilePath: status.LockFilePath,
		Sessions:     sessions,
	})
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, api.SessionListResponse{Sessions: s.sessionSvc.List()})
	case http.MethodPost:
		var req api.OpenSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.ProjectID) == "" {
			s.writeError(w, http.StatusBadRequest, "projectId is required")
			return
		}
		session, err := s.daemon.registry.Open(r.Context(), req.ProjectID, req.Step)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(session)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSessionItem routes /api/sessions/{project} and
// /api/sessions/{project}/{action}.
func (s *apiServer) handleSessionItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	projectID, action, _ := strings.Cut(rest, "/")
	if projectID == "" {
		s.writeError(w, http.StatusNotFound, "project not specified")
		return
	}
	ctx := services.WithProjectID(r.Context(), projectID)
	r = r.WithContext(ctx)
	logger := logging.WithContext(ctx, s.logger)

	if action == "" {
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		view := s.sessionSvc.Describe(projectID)
		if view == nil {
			s.writeError(w, http.StatusNotFound, fmt.Sprintf("no open session for project %s", projectID))
			return
		}
		s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: *view})
		return
	}

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	session, ok := s.daemon.registry.Get(projectID)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("no open session for project %s", projectID))
		return
	}
	logger.Debug("session action requested", slog.String("action", action))

	switch action {
	case "intake", "update":
		var req api.ItemsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		var items []*content.Item
		if err := json.Unmarshal(req.Items, &items); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid items payload")
			return
		}
		var err error
		if action == "intake" {
			err = session.Intake(items)
		} else {
			err = session.Update(items)
		}
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
	case "advance":
		if err := session.Advance(r.Context()); err != nil {
			s.writeServiceError(w, err)
			return
		}
	case "retreat":
		if err := session.Retreat(); err != nil {
			s.writeServiceError(w, err)
			return
		}
	case "clear":
		if err := session.ClearAll(r.Context()); err != nil {
			s.writeServiceError(w, err)
			return
		}
	case "schedule":
		s.handleBuildSchedule(w, r, session)
		return
	case "publish":
		s.handlePublish(w, r, session)
		return
	default:
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown session action %q", action))
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(session)})
}

func (s *apiServer) handleBuildSchedule(w http.ResponseWriter, r *http.Request, session *staging.Session) {
	var req api.ScheduleRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	opts := schedule.OptionsFromConfig(s.daemon.cfg, time.Now())
	if len(req.ExplicitTimes) > 0 {
		opts.ExplicitTimes = make(map[string]time.Time, len(req.ExplicitTimes))
		for itemID, value := range req.ExplicitTimes {
			parsed, err := time.Parse(time.RFC3339, value)
			if err != nil {
				s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid time for item %s: %v", itemID, err))
				return
			}
			opts.ExplicitTimes[itemID] = parsed
		}
	}

	scheduled, err := session.BuildSchedule(r.Context(), opts)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ScheduleResponse{Scheduled: api.FromScheduledList(scheduled)})
}

func (s *apiServer) handlePublish(w http.ResponseWriter, r *http.Request, session *staging.Session) {
	var req api.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	receipt, err := session.Publish(r.Context(), s.daemon.committer, req.SelectedIDs)
	if err != nil {
		if receipt != nil && len(receipt.FailedIDs) > 0 {
			// Partial acceptance: the caller must know which items are
			// already scheduled before retrying.
			s.writeJSON(w, http.StatusBadGateway, api.PublishResponse{
				Success:   false,
				FailedIDs: receipt.FailedIDs,
			})
			return
		}
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.PublishResponse{Success: true})
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		projectID := strings.TrimSpace(r.URL.Query().Get("project"))
		if projectID == "" {
			s.writeError(w, http.StatusBadRequest, "project query parameter is required")
			return
		}
		jobs, err := s.jobSvc.ListByProject(r.Context(), projectID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: jobs})
	case http.MethodPost:
		var req api.SubmitJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.Kind) == "" {
			s.writeError(w, http.StatusBadRequest, "projectId and kind are required")
			return
		}
		// Generation always runs under a staging session; opening one here
		// resumes from any draft for the project.
		ctx := services.WithProjectID(r.Context(), req.ProjectID)
		session, err := s.daemon.registry.Open(ctx, req.ProjectID, 0)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		job, err := session.SubmitGeneration(ctx, req.Kind, req.Payload)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		logging.WithContext(services.WithJobID(ctx, job.ID), s.logger).Debug("generation job accepted",
			slog.String("kind", req.Kind))
		if !job.IsTerminal() {
			s.daemon.watchJob(job.ID)
		}
		s.writeJSON(w, http.StatusOK, api.JobResponse{Job: api.FromJob(job)})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleJobItem routes /api/jobs/{id} and /api/jobs/{id}/retry.
func (s *apiServer) handleJobItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	jobID, action, _ := strings.Cut(rest, "/")
	if jobID == "" {
		s.writeError(w, http.StatusNotFound, "job not specified")
		return
	}
	ctx := services.WithJobID(r.Context(), jobID)

	switch {
	case action == "" && r.Method == http.MethodGet:
		view, err := s.jobSvc.Describe(ctx, jobID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.JobResponse{Job: *view})
	case action == "retry" && r.Method == http.MethodPost:
		job, err := s.daemon.jobs.Retry(ctx, jobID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		logging.WithContext(ctx, s.logger).Info("failed job resubmitted",
			slog.String("new_job_id", job.ID))
		if !job.IsTerminal() {
			s.daemon.watchJob(job.ID)
		}
		s.writeJSON(w, http.StatusOK, api.JobResponse{Job: api.FromJob(job)})
	case action != "" && action != "retry":
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("unknown job action %q", action))
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrJobFailure):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrCommit):
		s.writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, services.ErrTransient):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write api response", slog.String("error", err.Error()))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
