package conn

import (
	"net/http"
	"strings"

	"github.com/tealdb/tealdb/internal/auth"
	"github.com/tealdb/tealdb/internal/query"
	"github.com/tealdb/tealdb/internal/types"
)

type RequestAction string

const (
	RequestActionPing  RequestAction = "ping"
	RequestActionQuery RequestAction = "query"
	RequestActionSave  RequestAction = "save"
	RequestActionLoad  RequestAction = "load"
)

type Request struct {
	Action RequestAction `json:"action"`
	Query  string        `json:"query,omitempty"`
	Path   string        `json:"path,omitempty"`
	ReqId  string        `json:"req_id,omitempty"`
}

type Response struct {
	Status  int            `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    *ResultPayload `json:"data,omitempty"`
	ReqId   string         `json:"req_id,omitempty"`
}

type ColumnPayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ResultPayload is the wire shape of a query result: scalars travel as
// JSON numbers/bools/strings, bytes as 0x hex, NULL as null.
type ResultPayload struct {
	Columns []ColumnPayload `json:"columns"`
	Rows    [][]any         `json:"rows"`
}

func NewErrorResponse(status int, message string) Response {
	return Response{Status: status, Message: message}
}

func resultPayload(res query.Result) *ResultPayload {
	payload := &ResultPayload{Columns: []ColumnPayload{}, Rows: [][]any{}}
	for _, col := range res.Columns() {
		payload.Columns = append(payload.Columns, ColumnPayload{Name: col.Name, Type: col.Type.String()})
	}
	for _, row := range res.Data() {
		out := make([]any, len(row))
		for i, v := range row {
			out[i] = scalarPayload(v)
		}
		payload.Rows = append(payload.Rows, out)
	}
	return payload
}

func scalarPayload(v types.Value) any {
	switch v.Kind() {
	case types.TypeInt32:
		n, _ := v.AsInt()
		return n
	case types.TypeBool:
		b, _ := v.AsBool()
		return b
	case types.TypeString:
		s, _ := v.AsString()
		return s
	case types.TypeBytes:
		b, _ := v.AsBytes()
		return types.EncodeHex(b)
	default:
		return nil
	}
}

// isReadOnlyQuery classifies a statement by its leading keyword; only
// selects are read-only.
func isReadOnlyQuery(text string) bool {
	fields := strings.Fields(text)
	return len(fields) > 0 && strings.EqualFold(fields[0], "select")
}

func (s *Server) HandleRequest(user *auth.User, req Request) Response {
	switch req.Action {
	case RequestActionPing:
		return Response{Status: http.StatusOK, Message: "pong"}

	case RequestActionQuery:
		if req.Query == "" {
			return NewErrorResponse(http.StatusBadRequest, "missing query")
		}
		required := auth.PermWrite
		if isReadOnlyQuery(req.Query) {
			required = auth.PermRead
		}
		if !user.Perms.Allows(required) {
			return NewErrorResponse(http.StatusForbidden, "query requires "+required.String()+" permission")
		}

		s.Locker.Lock()
		res := s.DB.Execute(req.Query)
		s.Locker.Unlock()
		if !res.Ok() {
			return NewErrorResponse(http.StatusBadRequest, res.Err())
		}
		return Response{Status: http.StatusOK, Data: resultPayload(res)}

	case RequestActionSave:
		if !user.Perms.Allows(auth.PermSnapshot) {
			return NewErrorResponse(http.StatusForbidden, "save requires snapshot permission")
		}
		if req.Path == "" {
			return NewErrorResponse(http.StatusBadRequest, "missing path")
		}
		s.Locker.RLock()
		err := s.DB.SaveToFile(req.Path)
		s.Locker.RUnlock()
		if err != nil {
			return NewErrorResponse(http.StatusInternalServerError, err.Error())
		}
		return Response{Status: http.StatusOK, Message: "saved " + req.Path}

	case RequestActionLoad:
		if !user.Perms.Allows(auth.PermSnapshot) {
			return NewErrorResponse(http.StatusForbidden, "load requires snapshot permission")
		}
		if req.Path == "" {
			return NewErrorResponse(http.StatusBadRequest, "missing path")
		}
		s.Locker.Lock()
		err := s.DB.LoadFromFile(req.Path)
		s.Locker.Unlock()
		if err != nil {
			return NewErrorResponse(http.StatusBadRequest, err.Error())
		}
		return Response{Status: http.StatusOK, Message: "loaded " + req.Path}

	default:
		return NewErrorResponse(http.StatusBadRequest, "unknown action")
	}
}
