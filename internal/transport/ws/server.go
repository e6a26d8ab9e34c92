package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lodegrid.ai/internal/protocol"
	"lodegrid.ai/internal/sim/colony"
)

// Server upgrades connections and shuttles CMD/QUERY frames into the colony.
// The colony serializes all mutations internally, so each connection can
// dispatch directly from its reader loop.
type Server struct {
	colony  *colony.Colony
	welcome protocol.WelcomeMsg
	vals    *protocol.Validators
	log     *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(c *colony.Colony, welcome protocol.WelcomeMsg, vals *protocol.Validators, logger *log.Logger) *Server {
	return &Server{
		colony:  c,
		welcome: welcome,
		vals:    vals,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		operator, ok := s.handshake(conn)
		if !ok {
			return
		}

		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.ProtocolVersion != protocol.Version {
				continue
			}

			var res protocol.ResultMsg
			switch base.Type {
			case protocol.TypeCmd:
				res = s.handleCmd(operator, msg)
			case protocol.TypeQuery:
				res = s.handleQuery(msg)
			default:
				continue
			}
			if err := writeJSON(conn, res); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleCmd(operator string, raw []byte) protocol.ResultMsg {
	if err := protocol.ValidateRaw(s.vals.Cmd, raw); err != nil {
		return s.reject(raw, err)
	}
	var cmd protocol.CmdMsg
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return s.reject(raw, err)
	}
	// The session's operator always wins over whatever the frame claims.
	cmd.Operator = operator
	return s.colony.Dispatch(cmd)
}

func (s *Server) handleQuery(raw []byte) protocol.ResultMsg {
	if err := protocol.ValidateRaw(s.vals.Query, raw); err != nil {
		return s.reject(raw, err)
	}
	var q protocol.QueryMsg
	if err := json.Unmarshal(raw, &q); err != nil {
		return s.reject(raw, err)
	}
	return s.colony.Query(q)
}

func (s *Server) reject(raw []byte, err error) protocol.ResultMsg {
	var ref struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &ref)
	return protocol.ResultMsg{
		Type: protocol.TypeResult,
		Ref:  ref.ID,
		Tick: s.colony.Tick(),
		Code: protocol.ErrProtoBadRequest,
		Msg:  err.Error(),
	}
}

func (s *Server) handshake(conn *websocket.Conn) (operator string, ok bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closePolicy(conn, "expected HELLO")
		return "", false
	}
	if err := protocol.ValidateRaw(s.vals.Hello, msg); err != nil {
		closePolicy(conn, "bad HELLO")
		return "", false
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		closePolicy(conn, "bad protocol_version")
		return "", false
	}

	welcome := s.welcome
	welcome.Type = protocol.TypeWelcome
	welcome.ProtocolVersion = protocol.Version
	welcome.SessionID = uuid.NewString()
	welcome.Operator = hello.Operator

	if err := writeJSON(conn, welcome); err != nil {
		return "", false
	}
	return hello.Operator, true
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
