package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/azure/brand-visibility-engine/internal/analysis"
	"github.com/azure/brand-visibility-engine/internal/models"
	"github.com/azure/brand-visibility-engine/internal/storage"
)

const maxBodyBytes = 10 << 20

// correctRequest is the body of POST /correct
type correctRequest struct {
	Text     string                     `json:"text"`
	Rows     []models.BrandBreakdownRow `json:"rows"`
	Category bool                       `json:"category"`
}

func newRouter(svc *analysis.Service) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(svc)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(svc)).Methods("POST")
	router.HandleFunc("/analyze", analyzeHandler(svc)).Methods("POST")
	router.HandleFunc("/runs", submitHandler(svc)).Methods("POST")
	router.HandleFunc("/reports/{id}", reportHandler(svc)).Methods("GET")
	router.HandleFunc("/correct", correctHandler(svc)).Methods("POST")

	return router
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func metricsHandler(svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(svc.GetMetrics()))
	}
}

func triggerHandler(svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := svc.ProcessPending(ctx); err != nil {
				logrus.Errorf("Manual processing trigger failed: %v", err)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"message": "Processing triggered successfully"})
	}
}

func analyzeHandler(svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}

		report := svc.Analyze(req)
		if err := svc.StoreReport(r.Context(), report); err != nil {
			logrus.Errorf("Failed to store report %s: %v", report.ID, err)
			writeError(w, http.StatusInternalServerError, "failed to store report")
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func submitHandler(svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}

		name, err := svc.Submit(r.Context(), req)
		if err != nil {
			logrus.Errorf("Failed to queue run: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to queue run")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"name": name})
	}
}

func reportHandler(svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.GetReport(r.Context(), mux.Vars(r)["id"])
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, report)
		case storage.IsNotFound(err):
			writeError(w, http.StatusNotFound, "report not found")
		default:
			logrus.Debugf("Failed to load report: %v", err)
			writeError(w, http.StatusBadRequest, err.Error())
		}
	}
}

func correctHandler(svc *analysis.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req correctRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"text": svc.CorrectSummary(req.Text, req.Category, req.Rows)})
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (models.AnalysisRequest, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return models.AnalysisRequest{}, false
	}
	req, err := analysis.DecodeRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.AnalysisRequest{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
