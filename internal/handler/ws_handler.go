/*
Package handler provides the HTTP handlers and routing setup for the
collaboration server.

This file contains the HandleWebSocket function, which upgrades the HTTP
connection and starts the client pumps. The connection arrives unbound; it
binds to a project room only when it sends a join_project frame.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"slidesync/internal/app/collab"
	"slidesync/internal/pkg/logx"
)

// HandleWebSocket creates an HTTP HandlerFunc that upgrades the connection to
// WebSocket and runs the client lifecycle until the connection dies.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := collab.NewClient(deps.Hub, conn)

		go client.WritePump()

		logx.Info("WebSocket connection established", "remote_addr", conn.RemoteAddr().String())

		client.ReadPump()
	}
}
