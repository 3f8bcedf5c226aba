package handler

import (
	"context"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"isuclicker-api/internal/game"
	"isuclicker-api/internal/session"
	"isuclicker-api/pkg/apierror"
	"isuclicker-api/pkg/response"
	"isuclicker-api/pkg/uid"
)

// GameHandler serves the room endpoints and websocket sessions.
type GameHandler struct {
	svc        *game.Service
	decoder    *session.Decoder
	sessionCfg session.Config
	upgrader   websocket.Upgrader

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewGameHandler creates a new game handler.
func NewGameHandler(svc *game.Service, decoder *session.Decoder, cfg session.Config) *GameHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &GameHandler{
		svc:        svc,
		decoder:    decoder,
		sessionCfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Shutdown ends every open session.
func (h *GameHandler) Shutdown() {
	h.cancel()
}

// RoomResponse tells a client where to open its websocket.
type RoomResponse struct {
	Host string `json:"host"`
	Path string `json:"path"`
}

// Initialize handles GET /initialize
func (h *GameHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		log.Printf("[GameHandler] Initialize failed: %v", err)
		response.Error(w, apierror.InternalError("failed to initialize"))
		return
	}
	response.NoContent(w)
}

// Room handles GET /room/{room_name}
func (h *GameHandler) Room(w http.ResponseWriter, r *http.Request) {
	room := roomParam(r)
	writeRaw(w, http.StatusOK, RoomResponse{Host: "", Path: "/ws/" + url.PathEscape(room)})
}

// ServeWS handles GET /ws/{room_name}
func (h *GameHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	room := roomParam(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(h.baseCtx, cancel)
	defer stop()

	id := uid.NewSession()
	log.Printf("[GameHandler] Session %s joined room %q", id, room)
	s := session.New(id.String(), room, conn, h.svc, h.decoder, h.sessionCfg)
	if err := s.Run(ctx); err != nil {
		log.Printf("[GameHandler] Session %s left room %q: %v", id, room, err)
		return
	}
	log.Printf("[GameHandler] Session %s left room %q", id, room)
}

func roomParam(r *http.Request) string {
	return chi.URLParam(r, "room_name")
}
