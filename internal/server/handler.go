package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	mdwerror "github.com/msto63/koi/foundation/core/error"
	mdwlog "github.com/msto63/koi/foundation/core/log"
	"github.com/msto63/koi/foundation/koi/command"
	"github.com/msto63/koi/foundation/koi/parser"
	"github.com/msto63/koi/internal/store"
	"github.com/msto63/koi/pkg/core/cache"
)

const (
	maxMessageSize = 4 << 20
	readTimeout    = 120 * time.Second
)

// Message types
const (
	TypeParse   = "parse"
	TypePing    = "ping"
	TypePong    = "pong"
	TypeCommand = "command"
	TypeError   = "error"
	TypeDone    = "done"
)

// Error codes sent in error payloads
const (
	CodeMalformed      = "malformed"
	CodeInvalidPayload = "invalid_payload"
	CodeInvalidOptions = "invalid_options"
	CodeUnknownType    = "unknown_type"
	CodeArchiveFailed  = "archive_failed"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is a websocket frame in either direction. Replies carry the ID of
// the request they answer.
type Message struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParsePayload is the payload of a parse request
type ParsePayload struct {
	Text string `json:"text"`

	// Threshold overrides the configured command threshold when positive
	Threshold int `json:"threshold,omitempty"`

	// Save archives the run when the server has a store
	Save   bool   `json:"save,omitempty"`
	Source string `json:"source,omitempty"`
}

// ErrorPayload reports a malformed command or a rejected request
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// DonePayload ends the reply to a parse request
type DonePayload struct {
	Commands int    `json:"commands"`
	Errors   int    `json:"errors"`
	Lines    int    `json:"lines"`
	RunID    string `json:"run_id,omitempty"`

	// Cached is set when the reply was replayed from the result cache
	Cached bool `json:"cached,omitempty"`
}

type response struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// frame is one parse outcome in input order
type frame struct {
	cmd *command.Command
	err error
}

// parsed is a finished parse, kept in the result cache
type parsed struct {
	frames []frame
	stats  parser.Stats
}

// WebSocketHandler parses documents sent over websocket connections
type WebSocketHandler struct {
	options parser.Options
	archive store.Store
	results *cache.Cache[*parsed]
	logger  *mdwlog.Logger
}

// newWebSocketHandler creates a handler. archive and results may be nil.
func newWebSocketHandler(opts parser.Options, archive store.Store, results *cache.Cache[*parsed], logger *mdwlog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		options: opts,
		archive: archive,
		results: results,
		logger:  logger,
	}
}

// ServeHTTP handles the websocket upgrade and the connection
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorWithErr("websocket upgrade failed", err)
		return
	}
	h.handleConnection(r.Context(), conn)
}

// handleConnection serves requests one at a time so the frames of one
// reply are never interleaved with another
func (h *WebSocketHandler) handleConnection(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	h.logger.Info("websocket connection established", mdwlog.Field("remote", remote))

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.WarnWithErr("websocket read error", err, mdwlog.Field("remote", remote))
			} else {
				h.logger.Info("websocket connection closed", mdwlog.Field("remote", remote))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch msg.Type {
		case TypePing:
			h.send(conn, response{Type: TypePong, ID: msg.ID})

		case TypeParse:
			var payload ParsePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(conn, msg.ID, ErrorPayload{Code: CodeInvalidPayload, Message: "invalid parse payload"})
				continue
			}
			if err := h.handleParse(ctx, conn, msg.ID, payload); err != nil {
				h.logger.WarnWithErr("websocket send failed", err, mdwlog.Field("remote", remote))
				return
			}

		default:
			h.sendError(conn, msg.ID, ErrorPayload{Code: CodeUnknownType, Message: "unknown message type: " + msg.Type})
		}
	}
}

// handleParse streams one frame per command or malformed span, then done.
// The returned error is a write failure.
func (h *WebSocketHandler) handleParse(ctx context.Context, conn *websocket.Conn, id string, payload ParsePayload) error {
	opts := h.options
	if payload.Threshold > 0 {
		opts.CommandThreshold = payload.Threshold
	}
	if err := opts.Validate(); err != nil {
		return conn.WriteJSON(response{Type: TypeError, ID: id, Payload: ErrorPayload{
			Code:    CodeInvalidOptions,
			Message: err.Error(),
		}})
	}

	timer := h.logger.StartTimer("parse request")

	result, cached, err := h.parse(payload.Text, opts)
	if err != nil {
		return conn.WriteJSON(response{Type: TypeError, ID: id, Payload: ErrorPayload{
			Code:    CodeInvalidOptions,
			Message: err.Error(),
		}})
	}

	run := store.Run{Source: payload.Source, Threshold: opts.CommandThreshold}
	for _, f := range result.frames {
		if f.err != nil {
			run.Errors = append(run.Errors, f.err.Error())
			if err := conn.WriteJSON(response{Type: TypeError, ID: id, Payload: malformed(f.err)}); err != nil {
				return err
			}
			continue
		}
		run.Commands = append(run.Commands, f.cmd)
		if err := conn.WriteJSON(response{Type: TypeCommand, ID: id, Payload: f.cmd}); err != nil {
			return err
		}
	}

	done := DonePayload{
		Commands: result.stats.Commands,
		Errors:   result.stats.Errors,
		Lines:    result.stats.Lines,
		Cached:   cached,
	}

	if payload.Save && h.archive != nil {
		runID, err := h.archive.SaveRun(ctx, run)
		if err != nil {
			h.logger.LogError(mdwerror.Wrap(err, "archive parse run").WithOperation("server.handleParse"))
			if err := conn.WriteJSON(response{Type: TypeError, ID: id, Payload: ErrorPayload{
				Code:    CodeArchiveFailed,
				Message: err.Error(),
			}}); err != nil {
				return err
			}
		}
		done.RunID = runID
	}

	timer.StopWithFields(mdwlog.Fields{"commands": done.Commands, "errors": done.Errors, "cached": cached})
	return conn.WriteJSON(response{Type: TypeDone, ID: id, Payload: done})
}

// parse runs the parser, or replays an identical earlier request
func (h *WebSocketHandler) parse(text string, opts parser.Options) (*parsed, bool, error) {
	run := func() (*parsed, error) {
		p, err := parser.New(text, opts)
		if err != nil {
			return nil, err
		}
		result := &parsed{}
		for cmd, perr := range p.All() {
			result.frames = append(result.frames, frame{cmd: cmd, err: perr})
		}
		result.stats = p.Stats()
		return result, nil
	}

	if h.results == nil {
		result, err := run()
		return result, false, err
	}
	return h.results.GetOrSet(resultKey(text, opts), run)
}

func resultKey(text string, opts parser.Options) string {
	return cache.Key(
		strconv.Itoa(opts.CommandThreshold),
		strconv.FormatBool(opts.AllowIndent),
		strconv.FormatBool(opts.LineContinuation),
		strconv.Itoa(opts.MaxLineLength),
		strconv.FormatBool(opts.ConvertNumberCommand),
		text,
	)
}

func malformed(err error) ErrorPayload {
	var pe *parser.ParseError
	if !errors.As(err, &pe) {
		return ErrorPayload{Code: CodeMalformed, Message: err.Error()}
	}
	return ErrorPayload{
		Code:    CodeMalformed,
		Message: pe.Message,
		Line:    pe.Line,
		Column:  pe.Column,
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, resp response) {
	if err := conn.WriteJSON(resp); err != nil {
		h.logger.WarnWithErr("websocket send failed", err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, id string, payload ErrorPayload) {
	h.send(conn, response{Type: TypeError, ID: id, Payload: payload})
}
