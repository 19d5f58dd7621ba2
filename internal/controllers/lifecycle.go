package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"iruka_console/internal/models"
	"iruka_console/internal/services"
)

type Lifecycler interface {
	SubmitForQC(actor services.Actor, ref services.GameRef, checklist *models.SelfQAChecklist, releaseNote string) (*models.GameVersion, error)
	Decide(actor services.Actor, ref services.GameRef, decision services.Decision, notes string) (*models.GameVersion, error)
	Publish(actor services.Actor, ref services.GameRef) (*models.GameVersion, error)
}

type SubmitQCRequest struct {
	Checklist   models.SelfQAChecklist `json:"checklist"`
	ReleaseNote string                 `json:"release_note"`
}

type DecisionRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

type LifecycleController struct {
	service Lifecycler
	log     *slog.Logger
}

func NewLifecycleController(s Lifecycler, log *slog.Logger) *LifecycleController {
	return &LifecycleController{
		service: s,
		log:     log,
	}
}

func (c *LifecycleController) SubmitQC(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.lifecycle.SubmitQC"

	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}

	var request SubmitQCRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		c.log.Error(ErrBadRequest.Error(), slog.String("operation", op), slog.String("error", err.Error()))
		http.Error(w, ErrBadRequest.Error(), http.StatusBadRequest)
		return
	}

	version, err := c.service.SubmitForQC(actor, gameRefFromRequest(r), &request.Checklist, request.ReleaseNote)
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, version)
}

func (c *LifecycleController) Decide(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.lifecycle.Decide"

	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}

	var request DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		c.log.Error(ErrBadRequest.Error(), slog.String("operation", op), slog.String("error", err.Error()))
		http.Error(w, ErrBadRequest.Error(), http.StatusBadRequest)
		return
	}

	version, err := c.service.Decide(actor, gameRefFromRequest(r), services.Decision(request.Decision), request.Notes)
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, version)
}

func (c *LifecycleController) Publish(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.lifecycle.Publish"

	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}

	version, err := c.service.Publish(actor, gameRefFromRequest(r))
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, version)
}
