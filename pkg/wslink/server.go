// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wslink

import (
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/Thermoquad/sentinel/pkg/logger"
)

// Handler upgrades HTTP requests to control channel connections
type Handler struct {
	// Username and PasswordHash (bcrypt) enable HTTP Basic auth when
	// Username is set
	Username     string
	PasswordHash string

	// OnConnect receives each accepted connection. It must not block.
	OnConnect func(name string, conn *Conn)

	Log *logger.Logger

	upgrader websocket.Upgrader
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Log
	if log == nil {
		log = logger.Nop()
	}

	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="sentinel"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		log.Warnw("websocket auth rejected", "remote", r.RemoteAddr)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		log.Warnw("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	log.Infow("websocket control channel connected", "remote", r.RemoteAddr)
	h.OnConnect("ws:"+r.RemoteAddr, NewConn(ws))
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.Username == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok || user != h.Username {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.PasswordHash), []byte(pass)) == nil
}
