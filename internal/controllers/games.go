package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"iruka_console/internal/models"
	"iruka_console/internal/services"

	"github.com/go-chi/chi/v5"
)

type GameServicer interface {
	Create(g *models.Game) (*models.Game, error)
	Resolve(ref services.GameRef) (*models.Game, error)
	SoftDelete(id int64) error
	Restore(id int64) error
	List(page, pageSize int) ([]models.Game, int, error)
}

type VersionServicer interface {
	ListByGame(gameID int64) ([]models.GameVersion, error)
}

type AuditServicer interface {
	ListByGame(gameID int64, limit int) ([]models.AuditEntry, error)
	ListHistory(gameID int64, limit int) ([]models.HistoryEntry, error)
}

type CreateGameRequest struct {
	GameID      string `json:"game_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Grade       string `json:"grade"`
	Curriculum  string `json:"curriculum"`
	Thumbnail   string `json:"thumbnail"`
	Tags        string `json:"tags"`
}

type PaginationResponse struct {
	Total   int           `json:"total"`
	Pages   int           `json:"pages"`
	Current int           `json:"current"`
	Size    int           `json:"size"`
	Data    []models.Game `json:"data"`
}

type GameController struct {
	service  GameServicer
	versions VersionServicer
	audit    AuditServicer
	log      *slog.Logger
}

func NewGameController(s GameServicer, versions VersionServicer, audit AuditServicer, log *slog.Logger) *GameController {
	return &GameController{
		service:  s,
		versions: versions,
		audit:    audit,
		log:      log,
	}
}

func (c *GameController) Create(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.Create"

	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}

	var request CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		c.log.Error(ErrBadRequest.Error(), slog.String("operation", op), slog.String("error", err.Error()))
		http.Error(w, ErrBadRequest.Error(), http.StatusBadRequest)
		return
	}

	game := &models.Game{
		GameID:      request.GameID,
		Title:       request.Title,
		Description: request.Description,
		Subject:     request.Subject,
		Grade:       request.Grade,
		Curriculum:  request.Curriculum,
		Thumbnail:   request.Thumbnail,
		Tags:        request.Tags,
		OwnerID:     actor.UserID,
	}

	res, err := c.service.Create(game)
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusCreated, res)
}

func (c *GameController) Get(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.Get"

	res, err := c.service.Resolve(gameRefFromRequest(r))
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, res)
}

func (c *GameController) List(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.List"

	query := r.URL.Query()
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(query.Get("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}

	games, total, err := c.service.List(page, pageSize)
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	writeJSON(w, c.log, http.StatusOK, PaginationResponse{
		Total:   total,
		Pages:   totalPages,
		Current: page,
		Size:    pageSize,
		Data:    games,
	})
}

func (c *GameController) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.Delete"

	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}

	game, err := c.service.Resolve(gameRefFromRequest(r))
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	if game.OwnerID != actor.UserID && !actor.IsAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := c.service.SoftDelete(game.ID); err != nil {
		writeError(w, c.log, op, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *GameController) ListVersions(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.ListVersions"

	game, err := c.service.Resolve(gameRefFromRequest(r))
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	versions, err := c.versions.ListByGame(game.ID)
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, versions)
}

func (c *GameController) History(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.History"

	game, err := c.service.Resolve(gameRefFromRequest(r))
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := c.audit.ListHistory(game.ID, limit)
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, entries)
}

func (c *GameController) AuditLog(w http.ResponseWriter, r *http.Request) {
	const op = "controllers.games.AuditLog"

	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
		return
	}
	if !actor.IsAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	game, err := c.service.Resolve(gameRefFromRequest(r))
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := c.audit.ListByGame(game.ID, limit)
	if err != nil {
		writeError(w, c.log, op, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, entries)
}

func gameRefFromRequest(r *http.Request) services.GameRef {
	return services.ParseGameRef(chi.URLParam(r, "gameRef"))
}
