package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/studiowebux/setu/internal/auth"
	"github.com/studiowebux/setu/internal/events"
	"github.com/studiowebux/setu/internal/executor"
	"github.com/studiowebux/setu/internal/params"
	"github.com/studiowebux/setu/internal/types"
)

var (
	// ErrEmptyURL rejects a send before any I/O. The response state is left as it was.
	ErrEmptyURL = fmt.Errorf("%w: please enter a URL", executor.ErrInvalidRequest)

	// ErrSendInFlight rejects a send while the tab is still waiting for a result
	ErrSendInFlight = errors.New("request already in progress")
)

// Dispatcher starts an exchange and returns a channel that yields its single result.
// *executor.Bridge satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req executor.Request) <-chan executor.Result
}

// ResultMsg is produced by the command returned from Send once the
// exchange finishes. Request is the snapshot that was actually sent.
type ResultMsg struct {
	TabID   int
	Seq     uint64
	Request types.RequestData
	Result  executor.Result
}

// Session is one tab: a request being edited and the state of its last send.
// It is not safe for concurrent use; all calls belong on the UI loop.
type Session struct {
	id      int
	name    string
	request types.RequestData
	params  []params.QueryParam
	auth    auth.Config
	state   types.ResponseState
	seq     uint64

	publisher events.Publisher
}

func newSession(id int, name string, request types.RequestData, publisher events.Publisher) *Session {
	if publisher == nil {
		publisher = events.Discard
	}
	request.IsSending = false
	return &Session{
		id:        id,
		name:      name,
		request:   request,
		publisher: publisher,
	}
}

func (s *Session) ID() int { return s.id }

func (s *Session) Name() string { return s.name }

// Request returns a copy of the request being edited
func (s *Session) Request() types.RequestData { return s.request.Clone() }

func (s *Session) Params() []params.QueryParam {
	out := make([]params.QueryParam, len(s.params))
	copy(out, s.params)
	return out
}

func (s *Session) Auth() auth.Config { return s.auth }

// State returns the response state. The ResponseData pointer is shared; treat it as read-only.
func (s *Session) State() types.ResponseState { return s.state }

func (s *Session) IsSending() bool { return s.request.IsSending }

func (s *Session) changed(kind events.Kind) {
	s.publisher.Publish(events.Event{Kind: kind, TabID: s.id})
}

// Setters below only affect the next send; an exchange already in flight
// was built from a snapshot.

func (s *Session) SetName(name string) {
	s.name = name
	s.changed(events.TabsChanged)
}

func (s *Session) SetURL(url string) {
	s.request.URL = url
	s.changed(events.RequestChanged)
}

func (s *Session) SetMethod(method types.HttpMethod) {
	s.request.Method = method
	s.changed(events.RequestChanged)
}

func (s *Session) SetHeaders(headers []types.Header) {
	s.request.Headers = append([]types.Header(nil), headers...)
	s.changed(events.RequestChanged)
}

func (s *Session) AddHeader(header types.Header) {
	s.request.Headers = append(s.request.Headers, header)
	s.changed(events.RequestChanged)
}

// RemoveHeader drops the header at index; out of range is a no-op
func (s *Session) RemoveHeader(index int) {
	if index < 0 || index >= len(s.request.Headers) {
		return
	}
	s.request.Headers = append(s.request.Headers[:index:index], s.request.Headers[index+1:]...)
	s.changed(events.RequestChanged)
}

// ToggleHeader flips the enabled flag of the header at index
func (s *Session) ToggleHeader(index int) {
	if index < 0 || index >= len(s.request.Headers) {
		return
	}
	s.request.Headers[index].Enabled = !s.request.Headers[index].Enabled
	s.changed(events.RequestChanged)
}

func (s *Session) SetBody(body types.RequestBody) {
	s.request.Body = body.Clone()
	s.changed(events.RequestChanged)
}

func (s *Session) SetMultipart(fields []types.MultipartField) {
	s.request.Multipart = append([]types.MultipartField(nil), fields...)
	s.changed(events.RequestChanged)
}

func (s *Session) SetParams(query []params.QueryParam) {
	s.params = append([]params.QueryParam(nil), query...)
	s.changed(events.RequestChanged)
}

func (s *Session) SetAuth(cfg auth.Config) {
	s.auth = cfg
	s.changed(events.RequestChanged)
}

// ClearResponse returns the response state to Idle. If a send is in
// flight its result will no longer be displayed.
func (s *Session) ClearResponse() {
	s.state.Reset()
	s.changed(events.ResponseChanged)
}

// Outgoing builds the snapshot a send would use: query params and auth are
// applied, the ID is fresh and the name is the tab name.
func (s *Session) Outgoing() types.RequestData {
	headers, query := s.auth.Apply(s.request.Headers, s.params)

	snapshot := s.request.Clone()
	snapshot.ID = uuid.New()
	snapshot.Name = s.name
	snapshot.URL = params.AppendQuery(strings.TrimSpace(s.request.URL), params.BuildQueryString(query))
	snapshot.Headers = headers
	snapshot.IsSending = false
	return snapshot
}

// Send validates the request, moves the tab to Loading and starts the
// exchange through d. The returned command blocks until the result is
// available and yields a ResultMsg for Complete.
func (s *Session) Send(ctx context.Context, d Dispatcher) (tea.Cmd, error) {
	if strings.TrimSpace(s.request.URL) == "" {
		return nil, ErrEmptyURL
	}
	if s.request.IsSending {
		return nil, ErrSendInFlight
	}

	snapshot := s.Outgoing()

	s.seq++
	seq := s.seq
	s.request.IsSending = true
	s.state.Begin()
	s.changed(events.RequestChanged)
	s.changed(events.ResponseChanged)

	resultChan := d.Dispatch(ctx, executor.Request{
		Method:    snapshot.Method,
		URL:       snapshot.URL,
		Headers:   snapshot.Headers,
		Body:      snapshot.Body,
		Multipart: snapshot.Multipart,
	})

	tabID := s.id
	return func() tea.Msg {
		result := <-resultChan
		return ResultMsg{TabID: tabID, Seq: seq, Request: snapshot, Result: result}
	}, nil
}

// Complete applies the result of the current send. It reports false, and
// changes nothing, for results that belong to another tab or to a send
// that is no longer current.
func (s *Session) Complete(msg ResultMsg) bool {
	if msg.TabID != s.id || msg.Seq != s.seq || !s.request.IsSending {
		return false
	}

	s.request.IsSending = false
	s.changed(events.RequestChanged)

	// Cleared while in flight: the exchange still counts, the display stays Idle
	if !s.state.IsLoading() {
		return true
	}

	if msg.Result.Err != nil {
		s.state.Fail(msg.Result.Err.Error())
	} else {
		s.state.Succeed(msg.Result.Response)
	}
	s.changed(events.ResponseChanged)
	return true
}

// restore shows a stored response as if it had just been received.
func (s *Session) restore(resp *types.ResponseData) {
	if resp == nil {
		return
	}
	s.state.Begin()
	s.state.Succeed(resp.Clone())
}
