package printing

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/contesthub/gateway/internal/config"
	"github.com/contesthub/gateway/internal/contest"
	"github.com/contesthub/gateway/internal/middleware"
)

type Handlers struct {
	Intake *Intake
}

type listResponse struct {
	Jobs               []contest.PrintJob `json:"jobs"`
	RemainingJobs      int                `json:"remaining_jobs"`
	MaxPages           int                `json:"max_pages"`
	PDFPrintingAllowed bool               `json:"pdf_printing_allowed"`
}

func (h *Handlers) ListHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ContestFromContext(r.Context())
	if !ok {
		http.Error(w, "Contest not resolved", http.StatusInternalServerError)
		return
	}
	participation, ok := middleware.ParticipationFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if c.Phase(participation, time.Now()) != contest.PhaseRunning {
		http.Error(w, "Contest is not running", http.StatusForbidden)
		return
	}

	if !c.PrintingEnabled {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	jobs, err := h.Intake.ListJobs(participation.ID)
	if err != nil {
		log.Printf("Print job list failed for participation %d: %v", participation.ID, err)
		http.Error(w, "Temporary failure, please retry", http.StatusInternalServerError)
		return
	}
	remaining, err := h.Intake.RemainingQuota(participation.ID)
	if err != nil {
		log.Printf("Print quota check failed for participation %d: %v", participation.ID, err)
		http.Error(w, "Temporary failure, please retry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(listResponse{
		Jobs:               jobs,
		RemainingJobs:      remaining,
		MaxPages:           config.Cfg.MaxPagesPerJob,
		PDFPrintingAllowed: config.Cfg.PDFPrintingAllowed,
	}); err != nil {
		log.Printf("Failed to encode print jobs: %v", err)
	}
}

func (h *Handlers) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := middleware.ContestFromContext(r.Context())
	if !ok {
		http.Error(w, "Contest not resolved", http.StatusInternalServerError)
		return
	}
	participation, ok := middleware.ParticipationFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Print jobs are only accepted while the participation's clock is
	// actually running.
	if c.Phase(participation, time.Now()) != contest.PhaseRunning {
		http.Error(w, "Contest is not running", http.StatusForbidden)
		return
	}

	// A broken multipart body leaves files empty and falls through the
	// shape check, which keeps the check order of Submit intact.
	files := make(map[string][]Upload)
	if err := r.ParseMultipartForm(h.Intake.MaxPrintLength + 1<<20); err == nil && r.MultipartForm != nil {
		for field, headers := range r.MultipartForm.File {
			for _, header := range headers {
				f, err := header.Open()
				if err != nil {
					continue
				}
				// One extra byte so oversized uploads still trip the
				// size check instead of being silently truncated.
				data, err := io.ReadAll(io.LimitReader(f, h.Intake.MaxPrintLength+1))
				f.Close()
				if err != nil {
					continue
				}
				files[field] = append(files[field], Upload{Filename: header.Filename, Data: data})
			}
		}
	}

	fallback := "/" + c.Name + "/printing"

	_, err := h.Intake.Submit(r.Context(), c, participation, user.Username, files, time.Now())
	switch {
	case errors.Is(err, ErrPrintingDisabled):
		http.Error(w, "Not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrTooLarge),
		errors.Is(err, ErrStorageFailed):
		// The sink already carries the user-facing message.
		http.Redirect(w, r, fallback, http.StatusSeeOther)
		return
	case err != nil:
		log.Printf("Print submit failed for participation %d: %v", participation.ID, err)
		http.Error(w, "Temporary failure, please retry", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fallback, http.StatusSeeOther)
}
