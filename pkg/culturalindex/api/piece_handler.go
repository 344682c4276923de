package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/tendant/cultural-index/pkg/culturalindex"
)

// requestValidate validates decoded request bodies.
var requestValidate = validator.New()

// UploadPieceRequest is the request body for uploading a piece
type UploadPieceRequest struct {
	Name         string `json:"name" validate:"required,max=256"`
	Description  string `json:"description" validate:"max=4096"`
	Image        string `json:"image" validate:"max=2048"`
	AnimationURL string `json:"animation_url,omitempty" validate:"max=2048"`
	Uploader     string `json:"uploader" validate:"required,max=256"`
}

// UploadPieceResponse is the response body for an uploaded piece
type UploadPieceResponse struct {
	ID    int                 `json:"id"`
	Piece culturalindex.Piece `json:"piece"`
}

// VoteRequest is the request body for casting a vote
type VoteRequest struct {
	Address string   `json:"address" validate:"required,max=256"`
	Weight  *float64 `json:"weight" validate:"required,gte=0"`
}

// VoteResponse is the response body for an accepted vote
type VoteResponse struct {
	PieceID      int     `json:"piece_id"`
	Address      string  `json:"address"`
	Weight       float64 `json:"weight"`
	VotingWeight float64 `json:"voting_weight"`
}

// VotingWeightResponse is the response body for a piece's voting weight
type VotingWeightResponse struct {
	PieceID      int     `json:"piece_id"`
	VotingWeight float64 `json:"voting_weight"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// PieceHandler exposes a culturalindex.Index over HTTP
type PieceHandler struct {
	index  culturalindex.Index
	logger *slog.Logger
	guards []func(http.Handler) http.Handler
}

// HandlerOption configures a PieceHandler
type HandlerOption func(*PieceHandler)

// WithLogger sets the handler's logger
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *PieceHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithWriteGuard adds middleware applied only to mutating routes
func WithWriteGuard(guards ...func(http.Handler) http.Handler) HandlerOption {
	return func(h *PieceHandler) {
		h.guards = append(h.guards, guards...)
	}
}

// NewPieceHandler creates a new piece handler
func NewPieceHandler(index culturalindex.Index, opts ...HandlerOption) *PieceHandler {
	h := &PieceHandler{
		index:  index,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the routes for pieces
func (h *PieceHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPieces)
	r.Get("/{id}", h.GetPiece)
	r.Get("/{id}/votes", h.GetVotes)
	r.Get("/{id}/weight", h.GetVotingWeight)

	r.Group(func(r chi.Router) {
		for _, guard := range h.guards {
			r.Use(guard)
		}
		r.Post("/", h.UploadPiece)
		r.Post("/{id}/votes", h.Vote)
	})

	return r
}

// UploadPiece stores a new piece
func (h *PieceHandler) UploadPiece(w http.ResponseWriter, r *http.Request) {
	var req UploadPieceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid upload body", "error", err)
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := requestValidate.Struct(&req); err != nil {
		h.logger.Warn("Upload validation failed", "error", err)
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	metadata := culturalindex.PieceMetadata{
		Name:         req.Name,
		Description:  req.Description,
		Image:        req.Image,
		AnimationURL: req.AnimationURL,
	}
	id := h.index.UploadPiece(r.Context(), metadata, req.Uploader)

	h.logger.Debug("Piece uploaded", "piece_id", id, "uploader", req.Uploader)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, UploadPieceResponse{
		ID:    id,
		Piece: culturalindex.Piece{ID: id, Metadata: metadata, Uploader: req.Uploader},
	})
}

// ListPieces lists every piece with its voting weight in upload order
func (h *PieceHandler) ListPieces(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.index.ListPieces())
}

// GetPiece returns a piece with its votes and voting weight
func (h *PieceHandler) GetPiece(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pieceID(w, r)
	if !ok {
		return
	}

	result := h.index.GetPieceAndVotes(id)
	if result.Piece == nil {
		renderError(w, r, http.StatusNotFound, culturalindex.ErrPieceNotFound.Error())
		return
	}
	render.JSON(w, r, result)
}

// GetVotes returns the votes cast on a piece in the order they were cast
func (h *PieceHandler) GetVotes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pieceID(w, r)
	if !ok {
		return
	}

	votes, found := h.index.GetVotes(id)
	if !found {
		renderError(w, r, http.StatusNotFound, culturalindex.ErrPieceNotFound.Error())
		return
	}
	render.JSON(w, r, votes)
}

// GetVotingWeight returns a piece's total voting weight. Unknown pieces weigh 0.
func (h *PieceHandler) GetVotingWeight(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pieceID(w, r)
	if !ok {
		return
	}

	render.JSON(w, r, VotingWeightResponse{
		PieceID:      id,
		VotingWeight: h.index.GetVotingWeight(id),
	})
}

// Vote casts a vote on a piece
func (h *PieceHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pieceID(w, r)
	if !ok {
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid vote body", "piece_id", id, "error", err)
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := requestValidate.Struct(&req); err != nil {
		h.logger.Warn("Vote validation failed", "piece_id", id, "error", err)
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	voter := culturalindex.Voter{Address: req.Address, Weight: *req.Weight}
	if err := h.index.CastVote(r.Context(), id, voter); err != nil {
		h.logger.Info("Vote rejected", "piece_id", id, "address", req.Address, "error", err)
		renderError(w, r, voteErrorStatus(err), err.Error())
		return
	}

	h.logger.Debug("Vote cast", "piece_id", id, "address", req.Address, "weight", voter.Weight)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, VoteResponse{
		PieceID:      id,
		Address:      voter.Address,
		Weight:       voter.Weight,
		VotingWeight: h.index.GetVotingWeight(id),
	})
}

func (h *PieceHandler) pieceID(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		h.logger.Warn("Invalid piece ID", "id", idStr, "error", err)
		renderError(w, r, http.StatusBadRequest, "Invalid piece ID")
		return 0, false
	}
	return id, true
}

func voteErrorStatus(err error) int {
	switch {
	case errors.Is(err, culturalindex.ErrPieceNotFound):
		return http.StatusNotFound
	case errors.Is(err, culturalindex.ErrAlreadyVoted):
		return http.StatusConflict
	case errors.Is(err, culturalindex.ErrInvalidWeight):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}
