package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/xealabs/xea-oracle/internal/aggregate"
	"github.com/xealabs/xea-oracle/internal/attest"
	"github.com/xealabs/xea-oracle/internal/hub"
	"github.com/xealabs/xea-oracle/internal/ingest"
	"github.com/xealabs/xea-oracle/internal/model"
	"github.com/xealabs/xea-oracle/internal/store"
	"github.com/xealabs/xea-oracle/internal/validate"
)

// Server is the thin HTTP boundary over the validation core. Handlers
// only decode, delegate and encode; all orchestration lives below.
type Server struct {
	store        *store.Store
	hub          *hub.Hub
	orchestrator *validate.Orchestrator
	engine       *aggregate.Engine
	fetcher      *ingest.Fetcher
	extractor    *ingest.Extractor
	addr         string
}

// New creates a server wiring the core services together
func New(cfg model.ServerConfig, st *store.Store, h *hub.Hub, orch *validate.Orchestrator, engine *aggregate.Engine, fetcher *ingest.Fetcher) *Server {
	return &Server{
		store:        st,
		hub:          h,
		orchestrator: orch,
		engine:       engine,
		fetcher:      fetcher,
		extractor:    ingest.NewExtractor(),
		addr:         cfg.Addr,
	}
}

// Router builds the HTTP route table
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ingest", s.handleIngest).Methods(http.MethodPost)
	r.HandleFunc("/validate", s.handleValidate).Methods(http.MethodPost)
	r.HandleFunc("/status/{job_id}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/aggregate", s.handleAggregate).Methods(http.MethodPost)
	r.HandleFunc("/jobs/{job_id}/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/jobs/{job_id}/subscribers/{sub_id}/ping", s.handlePing).Methods(http.MethodPost)
	return r
}

// ListenAndServe runs the server until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", s.addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

type ingestRequest struct {
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
}

type ingestResponse struct {
	ProposalHash  string        `json:"proposal_hash"`
	CanonicalText string        `json:"canonical_text"`
	Claims        []model.Claim `json:"claims"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" && req.Text == "" {
		httpError(w, http.StatusBadRequest, "either url or text must be provided")
		return
	}

	text := req.Text
	if req.URL != "" {
		fetched, err := s.fetcher.Fetch(r.Context(), req.URL)
		if err != nil {
			httpError(w, http.StatusBadGateway, err.Error())
			return
		}
		text = fetched
	}

	canonical := ingest.CanonicalizeText(text)
	writeJSON(w, http.StatusOK, ingestResponse{
		ProposalHash:  ingest.ProposalHash(canonical),
		CanonicalText: canonical,
		Claims:        s.extractor.Extract(canonical),
	})
}

type validateProposalRequest struct {
	ProposalHash string        `json:"proposal_hash"`
	Claims       []model.Claim `json:"claims"`
}

type validateProposalResponse struct {
	JobID        string          `json:"job_id"`
	ProposalHash string          `json:"proposal_hash"`
	Status       model.JobStatus `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProposalHash == "" {
		httpError(w, http.StatusBadRequest, "proposal_hash is required")
		return
	}

	jobID, err := s.orchestrator.Start(r.Context(), req.ProposalHash, req.Claims)
	if err != nil {
		if errors.Is(err, store.ErrInvalidState) {
			httpError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, validateProposalResponse{
		JobID:        jobID,
		ProposalHash: req.ProposalHash,
		Status:       model.JobQueued,
		CreatedAt:    time.Now().UTC(),
	})
}

type statusResponse struct {
	JobID               string                `json:"job_id"`
	Status              model.JobStatus       `json:"status"`
	Progress            model.JobProgress     `json:"progress"`
	PartialResults      []model.MinerResponse `json:"partial_results"`
	StartedAt           *time.Time            `json:"started_at,omitempty"`
	CompletedAt         *time.Time            `json:"completed_at,omitempty"`
	ReadyForAggregation bool                  `json:"ready_for_aggregation"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	job, err := s.store.GetJob(jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpError(w, http.StatusNotFound, err.Error())
			return
		}
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	partial := job.AllResponses()
	if partial == nil {
		partial = []model.MinerResponse{}
	}

	writeJSON(w, http.StatusOK, statusResponse{
		JobID:               job.JobID,
		Status:              job.Status,
		Progress:            job.Progress(),
		PartialResults:      partial,
		StartedAt:           job.StartedAt,
		CompletedAt:         job.CompletedAt,
		ReadyForAggregation: job.ReadyForAggregation(),
	})
}

type aggregateRequest struct {
	JobID string `json:"job_id"`
}

// aggregateResponse pairs the bundle with its canonical content hash,
// the value the signing collaborator signs.
type aggregateResponse struct {
	Bundle       *model.EvidenceBundle `json:"evidence_bundle"`
	EvidenceHash string                `json:"evidence_hash"`
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bundle, err := s.engine.AggregateJob(req.JobID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			httpError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, store.ErrInvalidState):
			httpError(w, http.StatusConflict, err.Error())
		default:
			httpError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	hash, err := attest.EvidenceHash(bundle)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Broadcast(req.JobID, hub.Event{
		Type:   hub.EventAggregate,
		JobID:  req.JobID,
		Bundle: bundle,
	})
	writeJSON(w, http.StatusOK, aggregateResponse{
		Bundle:       bundle,
		EvidenceHash: hash,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":   "xea-oracle",
		"status": "healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func httpError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
