// Package server streams handshake traces and scan verdicts over a
// websocket, for the visualizer.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/detect"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/export"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/pda"
	"github.com/JESREAL1JDL7LUSTRE/suspicious-filename-detection-automata/internal/tracelex"
)

// Message types.
const (
	TypeValidate = "validate"
	TypeTrace    = "trace"
	TypeScan     = "scan"

	TypeStep    = "step"
	TypeVerdict = "verdict"
	TypeDone    = "done"
	TypeError   = "error"
)

// ErrBadRequest is returned for messages the server cannot act on.
var ErrBadRequest = errors.New("bad request")

// Request is a client message. Tokens is used by validate, Text by trace
// and Files by scan.
type Request struct {
	Type   string   `json:"type"`
	Tokens []string `json:"tokens,omitempty"`
	Text   string   `json:"text,omitempty"`
	Files  []string `json:"files,omitempty"`
}

// StepMessage is one PDA transition.
type StepMessage struct {
	Index int      `json:"index"`
	Token string   `json:"token"`
	From  string   `json:"from"`
	To    string   `json:"to"`
	Depth int      `json:"depth"`
	Stack []string `json:"stack"`
	Op    string   `json:"op"`
}

// VerdictMessage is one scanned filename.
type VerdictMessage struct {
	Filename   string `json:"filename"`
	Suspicious bool   `json:"suspicious"`
	Match      string `json:"match,omitempty"`
	Severity   string `json:"severity,omitempty"`
	Stage      string `json:"stage"`
}

// Response is a server message.
type Response struct {
	Type     string          `json:"type"`
	Step     *StepMessage    `json:"step,omitempty"`
	Verdict  *VerdictMessage `json:"verdict,omitempty"`
	Accepted *bool           `json:"accepted,omitempty"`
	Count    int             `json:"count,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Server holds shared, immutable automata; every connection gets its own
// PDA run.
type Server struct {
	det      *detect.Detector
	machine  *pda.Machine
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// New returns a Server. A nil logger means slog.Default().
func New(det *detect.Detector, machine *pda.Machine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		det:     det,
		machine: machine,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers every route on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /patterns", s.handlePatterns)
	mux.HandleFunc("GET /pda", s.handlePDA)
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// HTTPServer wraps Handler with timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type patternInfo struct {
	Name      string `json:"name"`
	Pattern   string `json:"pattern"`
	Severity  string `json:"severity"`
	NFAStates int    `json:"nfa_states"`
	DFAStates int    `json:"dfa_states"`
	MinStates int    `json:"min_states"`
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	ps := s.det.Patterns()
	out := make([]patternInfo, 0, len(ps))
	for _, c := range ps {
		st := c.Regex.Stats()
		out = append(out, patternInfo{
			Name:      c.Name,
			Pattern:   c.Expr,
			Severity:  c.Severity.String(),
			NFAStates: st.NFAStates,
			DFAStates: st.DFAStates,
			MinStates: st.MinStates,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"patterns": out, "grouping": s.det.Stats()})
}

func (s *Server) handlePDA(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, export.FromPDA(s.machine))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	log := s.logger.With("remote", conn.RemoteAddr().String())
	log.Debug("client connected")

	run := s.machine.NewRun()
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("client disconnected")
			} else if !errors.Is(err, websocket.ErrCloseSent) {
				log.Debug("read failed", "error", err)
			}
			return
		}
		err := s.serve(conn, run, req)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrBadRequest) {
			log.Debug("write failed", "error", err)
			return
		}
		log.Info("bad request", "type", req.Type, "error", err)
		if err := conn.WriteJSON(Response{Type: TypeError, Error: err.Error()}); err != nil {
			return
		}
	}
}

// serve answers one request. Write errors end the connection; request
// errors are reported to the client as ErrBadRequest.
func (s *Server) serve(conn *websocket.Conn, run *pda.Run, req Request) error {
	switch req.Type {
	case TypeValidate:
		return s.stream(conn, run, req.Tokens)
	case TypeTrace:
		tokens, err := tracelex.Tokenize(req.Text)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return s.stream(conn, run, tokens)
	case TypeScan:
		for _, v := range s.det.Scan(req.Files) {
			msg := &VerdictMessage{Filename: v.Filename, Suspicious: v.Suspicious, Stage: v.Source.String()}
			if v.Suspicious {
				msg.Match = v.Name
				msg.Severity = v.Severity.String()
			}
			if err := conn.WriteJSON(Response{Type: TypeVerdict, Verdict: msg}); err != nil {
				return err
			}
		}
		return conn.WriteJSON(Response{Type: TypeDone, Count: len(req.Files)})
	}
	return fmt.Errorf("%w: unknown message type %q", ErrBadRequest, req.Type)
}

// stream sends one step message per consumed token, stopping at ERROR, then
// the verdict.
func (s *Server) stream(conn *websocket.Conn, run *pda.Run, tokens []string) error {
	run.Reset()
	for _, tok := range tokens {
		st := run.Step(tok)
		stack := run.Stack()
		names := make([]string, len(stack))
		for i, sym := range stack {
			names[i] = sym.String()
		}
		msg := &StepMessage{
			Index: st.Index,
			Token: st.Token,
			From:  st.Before.String(),
			To:    st.After.String(),
			Depth: st.Depth,
			Stack: names,
			Op:    st.Op,
		}
		if err := conn.WriteJSON(Response{Type: TypeStep, Step: msg}); err != nil {
			return err
		}
		if st.After == pda.Error {
			break
		}
	}
	res := run.Result()
	accepted := res.Accepted
	return conn.WriteJSON(Response{Type: TypeDone, Accepted: &accepted, Count: res.Consumed})
}
