package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/studiowebux/setu/internal/auth"
	"github.com/studiowebux/setu/internal/session"
	"github.com/studiowebux/setu/internal/types"
	"github.com/studiowebux/setu/internal/workspace"
)

// IO bundles the streams a command reads from and writes to
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdIO returns the process streams
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// StatusError is returned after a response with a 4xx or 5xx status has
// been written. The caller only needs to set the exit code.
type StatusError struct {
	Code uint16
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded with status %d", e.Code)
}

// SendOptions describes a request built from command-line flags
type SendOptions struct {
	URL     string
	Method  string
	Name    string
	Headers []string // "Key: Value"
	Data    string   // @path reads a file, - reads stdin
	JSON    bool
	Form    []string // key=value
	User    string   // username:password
	Bearer  string
	SaveTo  string // collection name, created when missing

	Output OutputOptions
}

// isInteractive checks if r is a terminal (not piped)
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// Send builds the request in the active tab, sends it and writes the
// response. The exchange is recorded in history and analytics like any
// other send.
func Send(ctx context.Context, ws *workspace.Workspace, streams IO, opts SendOptions) error {
	tab := ws.Tabs().Active()
	if err := buildRequest(tab, opts, streams.In); err != nil {
		return err
	}

	msg, err := run(ctx, ws)
	if err != nil {
		return err
	}

	if opts.SaveTo != "" {
		col, ok := ws.Collections().FindByName(opts.SaveTo)
		if !ok {
			col = ws.Collections().Create(opts.SaveTo)
		}
		if _, ok := ws.SaveActiveToCollection(col.ID); ok {
			fmt.Fprintf(streams.Err, "Saved to collection %s\n", col.Name)
		}
	}

	return writeResult(streams, msg.Result.Response, msg.Result.Err, opts.Output)
}

// run sends the active tab and hands the result back to the workspace.
// Cancelling ctx aborts the exchange.
func run(ctx context.Context, ws *workspace.Workspace) (session.ResultMsg, error) {
	cmd, err := ws.Send()
	if err != nil {
		return session.ResultMsg{}, err
	}

	stop := context.AfterFunc(ctx, ws.Cancel)
	defer stop()

	msg, ok := cmd().(session.ResultMsg)
	if !ok {
		return session.ResultMsg{}, errors.New("send produced no result")
	}
	ws.Complete(msg)
	return msg, nil
}

func buildRequest(tab *session.Session, opts SendOptions, in io.Reader) error {
	tab.SetURL(opts.URL)

	name := opts.Name
	if name == "" {
		name = types.DefaultRequestName
	}
	tab.SetName(name)

	method := types.MethodGet
	switch {
	case opts.Method != "":
		m, err := types.ParseMethod(opts.Method)
		if err != nil {
			return err
		}
		method = m
	case opts.Data != "" || len(opts.Form) > 0:
		method = types.MethodPost
	}
	tab.SetMethod(method)

	headers := tab.Request().Headers
	for _, h := range opts.Headers {
		key, value, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("invalid header %q, expected 'Key: Value'", h)
		}
		headers = types.SetHeader(headers, key, strings.TrimSpace(value))
	}
	tab.SetHeaders(headers)

	body, err := buildBody(opts, in)
	if err != nil {
		return err
	}
	tab.SetBody(body)

	cfg, err := buildAuth(opts)
	if err != nil {
		return err
	}
	tab.SetAuth(cfg)
	return nil
}

func buildBody(opts SendOptions, in io.Reader) (types.RequestBody, error) {
	if len(opts.Form) > 0 {
		if opts.Data != "" {
			return types.RequestBody{}, errors.New("--data and --form cannot be combined")
		}
		fields := make(map[string]string, len(opts.Form))
		for _, f := range opts.Form {
			key, value, ok := strings.Cut(f, "=")
			if !ok || key == "" {
				return types.RequestBody{}, fmt.Errorf("invalid form field %q, expected key=value", f)
			}
			fields[key] = value
		}
		return types.FormBody(fields), nil
	}

	data, err := readData(opts.Data, in)
	if err != nil {
		return types.RequestBody{}, err
	}
	switch {
	case data == "":
		return types.NoBody(), nil
	case opts.JSON:
		return types.JSONBody(data), nil
	default:
		return types.TextBody(data), nil
	}
}

func readData(data string, in io.Reader) (string, error) {
	switch {
	case data == "-":
		if in == nil {
			return "", nil
		}
		b, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("failed to read body from stdin: %w", err)
		}
		return string(b), nil
	case strings.HasPrefix(data, "@"):
		b, err := os.ReadFile(data[1:])
		if err != nil {
			return "", fmt.Errorf("failed to read body file: %w", err)
		}
		return string(b), nil
	default:
		return data, nil
	}
}

func buildAuth(opts SendOptions) (auth.Config, error) {
	switch {
	case opts.User != "" && opts.Bearer != "":
		return auth.Config{}, errors.New("--user and --bearer cannot be combined")
	case opts.User != "":
		username, password, _ := strings.Cut(opts.User, ":")
		return auth.Config{Type: auth.Basic, Username: username, Password: password}, nil
	case opts.Bearer != "":
		return auth.Config{Type: auth.Bearer, Token: opts.Bearer}, nil
	default:
		return auth.Config{}, nil
	}
}
