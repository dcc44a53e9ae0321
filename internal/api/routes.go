package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/clipforge/clipforge/internal/jobs"
	"github.com/clipforge/clipforge/internal/metadata"
	"github.com/clipforge/clipforge/internal/videourl"
	"github.com/go-chi/chi/v5"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Post("/videos/validate", validateHandler(cfg))
	r.Post("/videos/metadata", metadataHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Post("/shorts/process", processHandler(cfg))
		r.Get("/shorts/status/{jobID}", jobStatusHandler(cfg))
		r.Get("/shorts/jobs", listJobsHandler(cfg))
	})

	// Produced clips and subtitle files are exposed verbatim under the
	// paths recorded on each Clip.
	fs := http.StripPrefix("/processed/", http.FileServer(http.Dir(cfg.OutputDir)))
	r.Get("/processed/*", fs.ServeHTTP)

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func validateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.URL == "" {
			WriteError(w, http.StatusBadRequest, "url is required", "BAD_REQUEST")
			return
		}

		res := videourl.Classify(req.URL)
		resp := ValidateResponse{
			Success: true,
			IsValid: res.Valid,
		}
		if res.Valid {
			resp.Platform = string(res.Platform)
			resp.VideoID = res.VideoID
		} else {
			resp.Error = res.Err
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func metadataHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MetadataRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.URL == "" {
			WriteError(w, http.StatusBadRequest, "url is required", "BAD_REQUEST")
			return
		}

		meta, err := cfg.Metadata.Fetch(r.Context(), req.URL)
		if err != nil {
			if errors.Is(err, metadata.ErrUnsupportedURL) {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
			WriteError(w, http.StatusInternalServerError, "failed to fetch metadata", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, MetadataResponse{
			Success:  true,
			Metadata: MetadataToPayload(meta),
		})
	}
}

func processHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())

		var req ProcessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if msg := validateProcessRequest(&req); msg != "" {
			WriteError(w, http.StatusBadRequest, msg, "BAD_REQUEST")
			return
		}

		subtitles := jobs.SubtitleConfig{Style: jobs.DefaultStyle()}
		if req.Subtitles != nil {
			subtitles = *req.Subtitles
			if subtitles.Style == (jobs.SubtitleStyle{}) {
				subtitles.Style = jobs.DefaultStyle()
			}
		}

		now := time.Now().UTC()
		created := make([]CreatedJobInfo, 0, len(req.Videos))
		for _, video := range req.Videos {
			job := &jobs.Job{
				ID:                jobs.NewID(),
				UserID:            user.ID,
				SourceType:        video.Type,
				SourceURL:         video.Path,
				Prompt:            req.Prompt,
				Duration:          *req.Duration,
				Subtitles:         subtitles,
				TranslateTitle:    req.TranslateTitle,
				SaveOriginalSrt:   req.SaveOriginalSrt,
				SaveTranslatedSrt: req.SaveTranslatedSrt,
				OutputFolder:      req.OutputFolder,
				Status:            jobs.StatusPending,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := cfg.Repository.CreateJob(r.Context(), job); err != nil {
				cfg.Logger.Error("failed to create job", "error", err)
				WriteError(w, http.StatusInternalServerError, "failed to create job", "INTERNAL_ERROR")
				return
			}
			if err := cfg.Pool.Submit(job.ID); err != nil {
				// The job stays pending in the store; the pool requeues
				// pending jobs on restart, and callers learn about the
				// backlog only via polling.
				cfg.Logger.Warn("could not enqueue job", "job_id", job.ID, "error", err)
			}
			created = append(created, CreatedJobInfo{
				ID:        job.ID,
				Status:    job.Status,
				SourceURL: job.SourceURL,
			})
		}

		WriteJSON(w, http.StatusCreated, ProcessResponse{
			Success: true,
			Message: strconv.Itoa(len(created)) + " video(s) queued for processing",
			Jobs:    created,
		})
	}
}

func validateProcessRequest(req *ProcessRequest) string {
	if len(req.Videos) == 0 {
		return "at least one video is required"
	}
	for _, v := range req.Videos {
		if v.Path == "" {
			return "every video needs a path"
		}
		if v.Type != jobs.SourceTypeLocal && v.Type != jobs.SourceTypeURL {
			return "video type must be 'local' or 'url'"
		}
	}
	if req.Prompt == "" {
		return "prompt is required"
	}
	if req.Duration == nil {
		return "duration window is required"
	}
	if req.Duration.Min <= 0 || req.Duration.Max <= 0 {
		return "duration min and max must be positive"
	}
	if req.Duration.Min >= req.Duration.Max {
		return "duration min must be less than max"
	}
	return ""
}

func jobStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		id := chi.URLParam(r, "jobID")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		if job.UserID != user.ID {
			WriteError(w, http.StatusForbidden, "job belongs to another user", "FORBIDDEN")
			return
		}

		WriteJSON(w, http.StatusOK, JobStatusResponse{Success: true, Job: JobToResponse(job)})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())

		list, err := cfg.Repository.ListJobsByUser(r.Context(), user.ID, 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Success: true, Jobs: make([]JobResponse, len(list))}
		for i, j := range list {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}
