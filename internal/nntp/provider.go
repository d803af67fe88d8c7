package nntp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strings"
	"time"

	"github.com/datallboy/gospool/internal/domain"
	"github.com/datallboy/gospool/internal/infra/config"
)

const dialTimeout = 10 * time.Second

type dialFunc func(ctx context.Context) (net.Conn, error)

type nntpProvider struct {
	conf domain.ProviderConfig
	dial dialFunc

	// idle connections, at most MaxConnection of them
	idle chan *textproto.Conn
}

func NewNNTPProvider(c config.ServerConfig) domain.Provider {
	conf := domain.ProviderConfig{
		ID:            c.ID,
		Host:          c.Host,
		Port:          c.Port,
		Username:      c.Username,
		Password:      c.Password,
		TLS:           c.TLS,
		MaxConnection: c.MaxConnection,
		Priority:      c.Priority,
	}
	return newProvider(conf, dialer(conf))
}

func newProvider(conf domain.ProviderConfig, dial dialFunc) *nntpProvider {
	if conf.MaxConnection <= 0 {
		conf.MaxConnection = 1
	}
	return &nntpProvider{
		conf: conf,
		dial: dial,
		idle: make(chan *textproto.Conn, conf.MaxConnection),
	}
}

func dialer(conf domain.ProviderConfig) dialFunc {
	addr := net.JoinHostPort(conf.Host, fmt.Sprint(conf.Port))

	return func(ctx context.Context) (net.Conn, error) {
		d := &net.Dialer{Timeout: dialTimeout}
		if !conf.TLS {
			return d.DialContext(ctx, "tcp", addr)
		}

		td := &tls.Dialer{
			NetDialer: d,
			Config: &tls.Config{
				ServerName: conf.Host,
				MinVersion: tls.VersionTLS12,
			},
		}
		return td.DialContext(ctx, "tcp", addr)
	}
}

// Interface implimentation: ID
func (p *nntpProvider) ID() string { return p.conf.ID }

// Interface implimentation: Priority
func (p *nntpProvider) Priority() int { return p.conf.Priority }

// Interface implimentation: MaxConnection
func (p *nntpProvider) MaxConnection() int { return p.conf.MaxConnection }

// Fetch retrieves the full article with ARTICLE and returns it with the
// dot-stuffing removed and CRLF line endings turned into LF.
func (p *nntpProvider) Fetch(ctx context.Context, msgID string) (io.Reader, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}

	data, err := p.article(conn, formatID(msgID))
	if err != nil {
		var protoErr *textproto.Error
		if errors.As(err, &protoErr) {
			// the connection is still in a clean state after a status reply
			p.release(conn)
			if protoErr.Code == 430 {
				return nil, fmt.Errorf("%s on %s: %w", msgID, p.ID(), domain.ErrArticleNotFound)
			}
			return nil, err
		}
		conn.Close()
		return nil, err
	}

	p.release(conn)
	return bytes.NewReader(data), nil
}

func (p *nntpProvider) article(conn *textproto.Conn, id string) ([]byte, error) {
	if _, err := conn.Cmd("ARTICLE %s", id); err != nil {
		return nil, err
	}

	// Expecting 220 Article follows
	if _, _, err := conn.ReadCodeLine(220); err != nil {
		return nil, err
	}

	// DotReader handles the NNTP "dot-stuffing" (terminating the stream with .\r\n)
	return io.ReadAll(conn.DotReader())
}

// TestConnection dials the server, greets and authenticates, then quits.
func (p *nntpProvider) TestConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := p.connect(ctx)
	if err != nil {
		return err
	}
	return quit(conn)
}

func (p *nntpProvider) Close() error {
	var errs []error
	for {
		select {
		case conn := <-p.idle:
			errs = append(errs, quit(conn))
		default:
			return errors.Join(errs...)
		}
	}
}

func (p *nntpProvider) acquire(ctx context.Context) (*textproto.Conn, error) {
	select {
	case conn := <-p.idle:
		return conn, nil
	default:
		return p.connect(ctx)
	}
}

func (p *nntpProvider) release(conn *textproto.Conn) {
	select {
	case p.idle <- conn:
	default:
		quit(conn)
	}
}

// handle connection and auth
func (p *nntpProvider) connect(ctx context.Context) (*textproto.Conn, error) {
	nc, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		nc.SetDeadline(deadline)
		defer nc.SetDeadline(time.Time{})
	}

	conn := textproto.NewConn(nc)

	// 200 posting allowed, 201 posting prohibited; both are fine for reading
	if _, _, err := conn.ReadCodeLine(2); err != nil {
		conn.Close()
		return nil, fmt.Errorf("greeting from %s: %w", p.ID(), err)
	}

	if err := p.authenticate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("authentication with %s: %w", p.ID(), err)
	}
	return conn, nil
}

func (p *nntpProvider) authenticate(conn *textproto.Conn) error {
	if p.conf.Username == "" {
		return nil
	}

	// AUTHINFO USER
	if _, err := conn.Cmd("AUTHINFO USER %s", p.conf.Username); err != nil {
		return err
	}

	_, _, err := conn.ReadCodeLine(381) // 381: Password required
	if err != nil {
		return err
	}

	// AUTHINFO PASS
	if _, err := conn.Cmd("AUTHINFO PASS %s", p.conf.Password); err != nil {
		return err
	}

	_, _, err = conn.ReadCodeLine(281) // 281: Authentication accepted
	return err
}

// quit sends QUIT so the server can release the connection slot immediately.
func quit(conn *textproto.Conn) error {
	conn.Cmd("QUIT")
	return conn.Close()
}

func formatID(msgID string) string {
	msgID = strings.TrimSpace(msgID)
	if !strings.HasPrefix(msgID, "<") {
		msgID = "<" + msgID + ">"
	}
	return msgID
}
