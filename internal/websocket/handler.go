package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the request and runs it as a hub client until the
// connection drops. originPatterns empty means any origin is accepted, which
// suits a household LAN.
func HandleWebSocket(hub *Hub, originPatterns ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: len(originPatterns) == 0,
			OriginPatterns:     originPatterns,
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err, "remote", r.RemoteAddr)
			return
		}
		defer conn.CloseNow()

		NewClient(hub, conn).Run(r.Context())
	}
}
