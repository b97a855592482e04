package api

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/unilocator/server/internal/server/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is checked by CORS middleware on the rest of the API;
	// websocket clients authenticate with a bearer token instead.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Subscribe handles GET /api/ws (requires auth)
// Upgrades the connection and streams the caller's device events until
// the client disconnects.
func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentity(r)
	if ident == nil {
		respondErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed for user %s: %v", ident.UserID, err)
		return
	}

	viewer := realtime.NewViewer(ident.UserID, conn)
	h.hub.Subscribe(ident.UserID, viewer)

	go viewer.WritePump(h.hub)
	go viewer.ReadPump(h.hub)
}
