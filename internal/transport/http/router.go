package http

import (
	"net/http"

	"github.com/rs/cors"

	"times-table-circuit/internal/app"
)

// NewRouter wires the auth endpoints, the game websocket and health check.
// An empty allowedOrigins permits any origin.
func NewRouter(service *app.GameService, allowedOrigins []string) http.Handler {
	auth := NewAuthHandler(service)
	ws := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/signin", auth.SignIn)
	mux.HandleFunc("GET /api/session", auth.Session)
	mux.HandleFunc("POST /api/signout", auth.SignOut)
	mux.HandleFunc("GET /ws", ws.ServeWS)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}).Handler(mux)
}
