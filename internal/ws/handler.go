package ws

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/samhotchkiss/trackshare/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// TokenVerifier resolves a bearer token to a user ID.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Handler upgrades authenticated HTTP connections to websocket clients.
type Handler struct {
	Hub            *Hub
	Auth           TokenVerifier
	AllowedOrigins []string
	Logger         *log.Logger
}

// ServeHTTP implements http.Handler. The token comes from ?token= since
// browsers cannot set headers on websocket requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	}
	if h.Auth == nil {
		writeUnauthorized(w)
		return
	}
	userID, err := h.Auth.Verify(token)
	if err != nil {
		writeUnauthorized(w)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return isWebSocketOriginAllowed(r, h.AllowedOrigins)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.OrDiscard(h.Logger).Debug("websocket upgrade failed", "err", err)
		return
	}

	client := NewClient(h.Hub, conn, userID)
	h.Hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}

// ReadPump drains the connection until it closes. Clients only send pings.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
}

func isWebSocketOriginAllowed(r *http.Request, allowList []string) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	originHost := normalizeOriginHost(originURL.Host)
	if originHost == "" {
		return false
	}

	reqHost := normalizeOriginHost(r.Host)
	if reqHost == originHost || isLoopbackAliasPair(reqHost, originHost) {
		return true
	}

	for _, candidate := range allowList {
		if isAllowedOriginCandidate(originURL, candidate) {
			return true
		}
	}
	return false
}

func normalizeOriginHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if host == "" {
		return ""
	}
	if parsedHost, _, err := net.SplitHostPort(host); err == nil {
		return strings.Trim(parsedHost, "[]")
	}
	return strings.Trim(host, "[]")
}

func isLoopbackAliasPair(a, b string) bool {
	loopback := map[string]bool{
		"localhost": true,
		"127.0.0.1": true,
		"::1":       true,
	}
	return loopback[a] && loopback[b]
}

func isAllowedOriginCandidate(originURL *url.URL, candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}
	if candidate == "*" {
		return true
	}

	parsedCandidate, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	if parsedCandidate.Scheme != "" && parsedCandidate.Scheme != originURL.Scheme {
		return false
	}
	patternHost := normalizeOriginHost(parsedCandidate.Host)
	if patternHost == "" {
		return false
	}

	actualHost := normalizeOriginHost(originURL.Host)
	if suffix, ok := strings.CutPrefix(patternHost, "*."); ok {
		if actualHost == suffix {
			return false
		}
		return strings.HasSuffix(actualHost, "."+suffix)
	}
	return actualHost == patternHost
}
