package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/launchpass/scand/internal/subscription"
	"github.com/launchpass/scand/models"
)

// buildHandler wires all REST routes onto a new ServeMux.
// Uses Go 1.22+ method-prefixed patterns ("GET /path", "POST /path").
func buildHandler(gw *Gateway) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", gw.handleHealth)

	mux.HandleFunc("POST /api/scan", gw.handleCreateScan)
	mux.HandleFunc("GET /api/scan/{id}", gw.handleGetScan)
	mux.HandleFunc("POST /api/scan/{id}/rescan", gw.handleRescan)
	mux.HandleFunc("GET /api/scans", gw.handleListScans)

	mux.HandleFunc("PUT /api/subscription/{userID}", gw.handlePutSubscription)
	mux.HandleFunc("GET /api/entitlements", gw.handleGetEntitlements)

	return mux
}

func (gw *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := gw.db.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "database is not reachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createScanRequest struct {
	RepoURL string `json:"repo_url"`
}

type scanCreatedResponse struct {
	ScanID string `json:"scan_id"`
}

// handleCreateScan starts (or reuses) a scan of the posted repository URL.
func (gw *Gateway) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var req createScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RepoURL == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "body must be {\"repo_url\": \"...\"}")
		return
	}

	id, err := gw.svc.CreateOrReuseScan(r.Context(), req.RepoURL, requestUser(r))
	if err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scanCreatedResponse{ScanID: id})
}

type scanDetailResponse struct {
	models.ScanRun
	Findings []models.Finding `json:"findings"`
}

func (gw *Gateway) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := gw.store.GetRun(r.Context(), id)
	if err != nil {
		writeScanError(w, err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "SCAN_NOT_FOUND", "no scan run with that id")
		return
	}

	findings, err := gw.store.GetRunFindings(r.Context(), id)
	if err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scanDetailResponse{ScanRun: *run, Findings: findings})
}

// handleRescan re-invokes the full pipeline for the run's repository. An
// unchanged commit resolves through the cache gate, so the response may
// carry the same scan id that was rescanned.
func (gw *Gateway) handleRescan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	run, err := gw.store.GetRun(r.Context(), id)
	if err != nil {
		writeScanError(w, err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "SCAN_NOT_FOUND", "no scan run with that id")
		return
	}

	newID, err := gw.svc.CreateOrReuseScan(r.Context(), run.RepoURL, requestUser(r))
	if err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scanCreatedResponse{ScanID: newID})
}

func (gw *Gateway) handleListScans(w http.ResponseWriter, r *http.Request) {
	repoURL := r.URL.Query().Get("repo_url")
	if repoURL == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "repo_url query parameter is required")
		return
	}

	runs, err := gw.store.ListRunsByRepo(r.Context(), repoURL, 50)
	if err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": runs})
}

type putSubscriptionRequest struct {
	PlanID string `json:"plan_id"`
}

// handlePutSubscription records a plan change pushed by the billing
// webhook handler.
func (gw *Gateway) handlePutSubscription(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	var req putSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "body must be {\"plan_id\": \"...\"}")
		return
	}
	plan, ok := subscription.ParsePlanID(req.PlanID)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_PLAN", "plan_id must be one of: free, plus, pro")
		return
	}

	if err := gw.store.UpsertSubscription(r.Context(), userID, plan); err != nil {
		writeScanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID, "plan": string(plan)})
}

// handleGetEntitlements resolves the requesting account's capability set.
func (gw *Gateway) handleGetEntitlements(w http.ResponseWriter, r *http.Request) {
	userID := requestUser(r)
	plan := subscription.PlanFree
	if userID != "" {
		var err error
		plan, err = gw.store.GetUserPlan(r.Context(), userID)
		if err != nil {
			writeScanError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, subscription.ResolveEntitlements(plan, gw.cfg.Scan.AIEnabled))
}
