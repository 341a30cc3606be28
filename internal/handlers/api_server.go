// internal/handlers/api_server.go
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/game"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/lobby"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/middleware"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/room"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// Options configures the HTTP surface of the server.
type Options struct {
	Directory *lobby.Directory
	Logger    *logrus.Logger
	// AllowedOrigins feeds both CORS and the websocket origin check. Empty
	// means any origin.
	AllowedOrigins []string
	// PublicURL is the base URL encoded in invite QR codes. When empty it is
	// derived from the request.
	PublicURL    string
	PingInterval time.Duration
}

// NewRouter wires the websocket endpoint and the read-only room API.
func NewRouter(opts Options) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	api := &apiServer{dir: opts.Directory, logger: opts.Logger, publicURL: strings.TrimSuffix(opts.PublicURL, "/")}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(opts.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", api.healthz)
	r.Get("/ws", LobbyWSHandler(opts.Logger, opts.Directory, originPatterns(origins), opts.PingInterval))
	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", api.listRooms)
		r.Get("/{roomID}", api.getRoom)
		r.Get("/{roomID}/history", api.roomHistory)
		r.Get("/{roomID}/invite.png", api.roomInvite)
	})
	return r
}

type apiServer struct {
	dir       *lobby.Directory
	logger    *logrus.Logger
	publicURL string
}

func (s *apiServer) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.dir.Sessions(),
		"rooms":    len(s.dir.ListRooms()),
	})
}

func (s *apiServer) listRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"rooms": s.dir.ListRooms()})
}

func (s *apiServer) getRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := s.listedRoom(chi.URLParam(r, "roomID"))
	if !ok {
		writeError(w, http.StatusNotFound, game.ErrRoomNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rm.Summary())
}

func (s *apiServer) roomHistory(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	rounds, err := s.dir.History(r.Context(), roomID)
	if errors.Is(err, game.ErrRoomNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.WithField("room_id", roomID).WithError(err).Error("Reading room history failed.")
		writeError(w, http.StatusInternalServerError, errors.New("history unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"room_id": roomID, "rounds": rounds})
}

// roomInvite renders a QR code for the page that joins this room.
func (s *apiServer) roomInvite(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if _, ok := s.listedRoom(roomID); !ok {
		writeError(w, http.StatusNotFound, game.ErrRoomNotFound)
		return
	}

	png, err := qrcode.Encode(s.inviteURL(r, roomID), qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *apiServer) inviteURL(r *http.Request, roomID string) string {
	base := s.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?room=" + roomID
}

// listedRoom hides bot rooms from the public API.
func (s *apiServer) listedRoom(id string) (*room.Room, bool) {
	rm, ok := s.dir.Room(id)
	if !ok || rm.Mode == room.ModeBot {
		return nil, false
	}
	return rm, true
}

// originPatterns turns CORS origins into websocket host patterns.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		out = append(out, o)
	}
	return out
}
