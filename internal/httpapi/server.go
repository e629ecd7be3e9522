package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"memchess/internal/board"
	"memchess/internal/domain"
	"memchess/internal/generator"
	"memchess/internal/obslog"
	"memchess/internal/preset"
	"memchess/internal/session"
	"memchess/internal/store"
	"memchess/internal/trainer"
	"memchess/pkg/traindto"
)

// Server exposes the trainer over a small JSON API. One trainer, one
// player; concurrency control lives in the trainer, not here.
type Server struct {
	svc           *trainer.Service
	presets       *preset.Catalog
	defaultPreset string

	srv *fasthttp.Server
}

func NewServer(svc *trainer.Service, presets *preset.Catalog, defaultPreset string) *Server {
	s := &Server{svc: svc, presets: presets, defaultPreset: defaultPreset}
	s.srv = &fasthttp.Server{
		Handler:      s.handle,
		Name:         "memchess",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

// Handler exposes the request handler for tests.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.handle
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	method := string(ctx.Method())
	path := string(ctx.Path())

	switch {
	case method == fasthttp.MethodGet && path == "/healthz":
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case method == fasthttp.MethodGet && path == "/api/game":
		writeJSON(ctx, fasthttp.StatusOK, sessionToDTO(s.svc.CurrentSession()))
	case method == fasthttp.MethodPost && path == "/api/game/start":
		s.handleStart(ctx)
	case method == fasthttp.MethodPost && path == "/api/game/end-memorization":
		s.handleEndMemorization(ctx)
	case method == fasthttp.MethodPost && path == "/api/game/place":
		s.handlePlace(ctx)
	case method == fasthttp.MethodPost && path == "/api/game/remove":
		s.handleRemove(ctx)
	case method == fasthttp.MethodPost && path == "/api/game/submit":
		s.handleSubmit(ctx)
	case method == fasthttp.MethodPost && path == "/api/game/reset":
		writeJSON(ctx, fasthttp.StatusOK, sessionToDTO(s.svc.ResetGame()))
	case method == fasthttp.MethodGet && path == "/api/rating":
		st := s.svc.CurrentRating()
		writeJSON(ctx, fasthttp.StatusOK, traindto.RatingState{Rating: st.Rating, Streak: st.Streak})
	case method == fasthttp.MethodGet && path == "/api/profile":
		writeJSON(ctx, fasthttp.StatusOK, profileToDTO(s.svc.Profile()))
	case method == fasthttp.MethodGet && path == "/api/presets":
		s.handlePresets(ctx)
	case method == fasthttp.MethodGet && path == "/api/leaderboard":
		s.handleLeaderboard(ctx)
	case method == fasthttp.MethodPost && path == "/api/rank-preview":
		s.handleRankPreview(ctx)
	case method == fasthttp.MethodPost && path == "/api/persistence/retry":
		s.handleRetryPersistence(ctx)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "NOT_FOUND", fmt.Errorf("no route %s %s", method, path))
	}
}

func (s *Server) handleStart(ctx *fasthttp.RequestCtx) {
	var req traindto.StartRequest
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, "BAD_REQUEST", err)
			return
		}
	}

	cfg, err := s.resolveConfig(req)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "UNKNOWN_PRESET", err)
		return
	}

	snap, err := s.svc.StartGame(cfg)
	if err != nil {
		writeTrainerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, sessionToDTO(snap))
}

func (s *Server) resolveConfig(req traindto.StartRequest) (session.Config, error) {
	name := req.Preset
	if name == "" && req.PieceCount == 0 && req.Difficulty == "" {
		name = s.defaultPreset
	}
	if name != "" {
		cfg, ok := s.presets.Config(name)
		if !ok {
			return session.Config{}, fmt.Errorf("unknown preset %q", name)
		}
		return cfg, nil
	}
	return session.Config{
		PieceCount:      req.PieceCount,
		MemorizeSeconds: req.MemorizeSeconds,
		Difficulty:      req.Difficulty,
	}, nil
}

func (s *Server) handleEndMemorization(ctx *fasthttp.RequestCtx) {
	if err := s.svc.EndMemorization(); err != nil {
		writeTrainerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, sessionToDTO(s.svc.CurrentSession()))
}

func (s *Server) handlePlace(ctx *fasthttp.RequestCtx) {
	var req traindto.PlaceRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	sq, err := board.ParseSquare(req.Square)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "BAD_SQUARE", err)
		return
	}
	piece, err := board.ParsePiece(req.Color, req.Type)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "BAD_PIECE", err)
		return
	}
	if err := s.svc.PlacePiece(sq, piece); err != nil {
		writeTrainerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, sessionToDTO(s.svc.CurrentSession()))
}

func (s *Server) handleRemove(ctx *fasthttp.RequestCtx) {
	var req traindto.RemoveRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	sq, err := board.ParseSquare(req.Square)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "BAD_SQUARE", err)
		return
	}
	if err := s.svc.RemovePiece(sq); err != nil {
		writeTrainerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, sessionToDTO(s.svc.CurrentSession()))
}

func (s *Server) handleSubmit(ctx *fasthttp.RequestCtx) {
	snap, err := s.svc.SubmitSolution()
	if err != nil {
		writeTrainerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, sessionToDTO(snap))
}

func (s *Server) handlePresets(ctx *fasthttp.RequestCtx) {
	names := s.presets.Names()
	out := make([]traindto.Config, 0, len(names))
	for _, name := range names {
		cfg, _ := s.presets.Config(name)
		out = append(out, traindto.Config{
			PieceCount:      cfg.PieceCount,
			MemorizeSeconds: cfg.MemorizeSeconds,
			Difficulty:      cfg.Difficulty,
		})
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) handleLeaderboard(ctx *fasthttp.RequestCtx) {
	difficulty := string(ctx.QueryArgs().Peek("difficulty"))
	if difficulty == "" {
		difficulty = s.defaultPreset
	}
	// Accept a preset key ("normal") as an alias for its display label.
	if cfg, ok := s.presets.Config(difficulty); ok {
		difficulty = cfg.Difficulty
	}
	entries, err := s.svc.Leaderboard(ctx, difficulty)
	if err != nil {
		writeTrainerError(ctx, err)
		return
	}
	out := make([]traindto.LeaderboardEntry, 0, len(entries))
	for i, e := range entries {
		out = append(out, entryToDTO(e, i+1))
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) handleRankPreview(ctx *fasthttp.RequestCtx) {
	var req traindto.RankPreviewRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "BAD_REQUEST", err)
		return
	}
	candidate := domain.LeaderboardEntry{
		Difficulty:          req.Difficulty,
		PieceCount:          req.PieceCount,
		CorrectPieces:       req.CorrectPieces,
		WrongPieces:         req.WrongPieces,
		MemorizeTimeSeconds: req.MemorizeTimeSeconds,
		SolutionTimeSeconds: req.SolutionTimeSeconds,
	}
	rank, err := s.svc.RankPreview(ctx, candidate)
	if err != nil {
		writeTrainerError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]int{"rank": rank})
}

func (s *Server) handleRetryPersistence(ctx *fasthttp.RequestCtx) {
	err := s.svc.RetryPersistence(ctx)
	resp := map[string]any{"pending": s.svc.PendingFailures()}
	if err != nil {
		resp["error"] = err.Error()
		writeJSON(ctx, fasthttp.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func writeTrainerError(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidConfig):
		writeError(ctx, fasthttp.StatusBadRequest, "INVALID_CONFIG", err)
	case errors.Is(err, session.ErrInvalidTransition):
		writeError(ctx, fasthttp.StatusConflict, "INVALID_TRANSITION", err)
	case errors.Is(err, generator.ErrGenerationFailed):
		writeError(ctx, fasthttp.StatusInternalServerError, "GENERATION_FAILED", err)
	case errors.Is(err, store.ErrPersistence):
		writeJSONError(ctx, fasthttp.StatusServiceUnavailable, traindto.DomainError{
			Code: "PERSISTENCE_ERROR", Message: err.Error(), Retryable: true,
		})
	default:
		writeError(ctx, fasthttp.StatusInternalServerError, "INTERNAL", err)
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, code string, err error) {
	writeJSONError(ctx, status, traindto.DomainError{Code: code, Message: err.Error()})
}

func writeJSONError(ctx *fasthttp.RequestCtx, status int, derr traindto.DomainError) {
	obslog.L().Debug("http_error",
		zap.Int("status", status),
		zap.String("code", derr.Code),
		zap.String("path", string(ctx.Path())),
	)
	writeJSON(ctx, status, map[string]traindto.DomainError{"error": derr})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":{"code":"ENCODE_FAILED"}}`)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(payload)
}

// sessionToDTO shapes the snapshot for the wire. The original board stays
// hidden while the player reconstructs it.
func sessionToDTO(snap session.Session) traindto.SessionState {
	out := traindto.SessionState{
		SessionID: snap.ID,
		Phase:     string(snap.Phase),
		Config: traindto.Config{
			PieceCount:      snap.Config.PieceCount,
			MemorizeSeconds: snap.Config.MemorizeSeconds,
			Difficulty:      snap.Config.Difficulty,
		},
	}
	showOriginal := snap.Phase == session.PhaseMemorization || snap.Phase == session.PhaseResult
	if showOriginal && snap.Original != nil {
		out.Original = placements(snap.Original)
		out.OriginalFEN = snap.Original.FEN()
	}
	if snap.Solution != nil && (snap.Phase == session.PhaseSolution || snap.Phase == session.PhaseResult) {
		out.Solution = placements(snap.Solution)
		out.SolutionFEN = snap.Solution.FEN()
	}
	if snap.Accuracy != nil {
		out.Accuracy = &traindto.Accuracy{
			AccuracyPercent:     snap.Accuracy.AccuracyPercent,
			CorrectPlacements:   snap.Accuracy.CorrectPlacements,
			TotalOriginalPieces: snap.Accuracy.TotalOriginalPieces,
			ExtraPieces:         snap.Accuracy.ExtraPieces,
		}
		out.RatingBefore = snap.RatingBefore
		out.RatingAfter = snap.RatingAfter
		out.RatingDelta = snap.RatingDelta
		out.Streak = snap.Streak
		out.CompletionSeconds = snap.CompletionSeconds
	}
	return out
}

func placements(p *board.Position) []traindto.Placement {
	squares := p.Squares()
	out := make([]traindto.Placement, 0, len(squares))
	for _, sq := range squares {
		piece := p.PieceAt(sq)
		if piece == nchess.NoPiece {
			continue
		}
		color, typ := board.PieceNames(piece)
		out = append(out, traindto.Placement{Square: sq.String(), Color: color, Type: typ})
	}
	return out
}

func profileToDTO(p domain.TrainingProfile) traindto.Profile {
	return traindto.Profile{
		PlayerName:   p.PlayerName,
		Rating:       p.Rating,
		Streak:       p.Streak,
		GamesPlayed:  p.GamesPlayed,
		BestAccuracy: p.BestAccuracy,
		LastPlayedAt: p.LastPlayedAt,
	}
}

func entryToDTO(e domain.LeaderboardEntry, rank int) traindto.LeaderboardEntry {
	return traindto.LeaderboardEntry{
		Rank:                rank,
		PlayerName:          e.PlayerName,
		Difficulty:          e.Difficulty,
		PieceCount:          e.PieceCount,
		CorrectPieces:       e.CorrectPieces,
		WrongPieces:         e.WrongPieces,
		MemorizeTimeSeconds: e.MemorizeTimeSeconds,
		SolutionTimeSeconds: e.SolutionTimeSeconds,
		CreatedAt:           e.CreatedAt,
	}
}
