package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// socketError is pushed to the client when one of its commands is rejected.
type socketError struct {
	Error   string `json:"error"`
	Command string `json:"command"`
}

// socket streams every snapshot of a session and applies the commands the
// client sends back. Only this goroutine writes to the connection.
func (s *Server) socket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, ok := s.lookup(w, ps)
	if !ok {
		return
	}
	e.openSocket()
	defer e.closeSocket()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("unable to upgrade connection")
		return
	}
	defer conn.Close()

	id := e.session.ID
	snapshots, unsubscribe := e.session.Subscribe()
	defer unsubscribe()

	rejected := make(chan socketError, 1)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			req := CommandRequest{}
			if err := conn.ReadJSON(&req); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.WithError(err).WithField("SessionID", id).Debug("socket read failed")
				}
				return
			}
			if _, err := e.command(r.Context(), req.Command); err != nil {
				select {
				case rejected <- socketError{Error: err.Error(), Command: req.Command}:
				default:
				}
			}
		}
	}()

	write := func(v interface{}) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			log.WithError(err).WithField("SessionID", id).Debug("socket write failed")
			return false
		}
		return true
	}

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if !write(snap) {
				return
			}
		case msg := <-rejected:
			if !write(msg) {
				return
			}
		case <-closed:
			return
		}
	}
}

