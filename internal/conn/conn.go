// Package conn exposes the engine over a websocket: one connection, many
// request/response exchanges. The engine itself is single-threaded; this
// layer is the caller that serialises access.
package conn

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tealdb/tealdb/internal/auth"
	"github.com/tealdb/tealdb/internal/db"
	"github.com/tealdb/tealdb/pkg"
)

var Upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	Locker sync.RWMutex
	DB     *db.Database
	Users  map[string]*auth.User
}

func NewServer(database *db.Database) *Server {
	return &Server{DB: database, Users: map[string]*auth.User{}}
}

func (s *Server) AddUser(name, password string, perms auth.Permission) (*auth.User, error) {
	user, err := auth.NewUser(name, password, perms)
	if err != nil {
		return nil, err
	}
	s.Users[user.Id] = user
	return user, nil
}

func (s *Server) validateConn(r *http.Request) *auth.User {
	q := r.URL.Query()
	username, password := q.Get("username"), q.Get("password")
	if username == "" {
		if h := r.Header.Get("Authorization"); h != "" {
			if name, pass, found := strings.Cut(h, ":"); found {
				username, password = name, pass
			}
		}
	}
	for _, u := range s.Users {
		if u.Name == username && u.ValidatePassword(password) {
			return u
		}
	}
	return nil
}

func (s *Server) Handler(w http.ResponseWriter, r *http.Request) {
	user := s.validateConn(r)
	if user == nil {
		HttpError(w, http.StatusUnauthorized, "connection unauthorized")
		return
	}

	ws, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog(err)
		return
	}
	defer ws.Close()

	conn_id := uuid.New().String()
	pkg.InfoLog("new connection established", conn_id)
	defer pkg.InfoLog("connection closed", conn_id)

	for {
		var req Request
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("unexpected close", err)
			} else {
				pkg.DebugLog("connection closed", err)
			}
			return
		}

		res := s.HandleRequest(user, req)
		res.ReqId = req.ReqId

		if err := ws.WriteJSON(res); err != nil {
			pkg.ErrorLog("writing response", err)
			return
		}
	}
}

func (s *Server) Listen(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.Handler)
	pkg.InfoLog("listening on port", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

func HttpError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	fmt.Fprint(w, message)
}
