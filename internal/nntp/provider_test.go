package nntp

import (
	"context"
	"io"
	"net"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datallboy/gospool/internal/domain"
)

// fakeServer answers just enough NNTP for the client: greeting,
// AUTHINFO, ARTICLE and QUIT.
type fakeServer struct {
	articles map[string]string
	user     string
	pass     string
	dials    atomic.Int32
}

func (s *fakeServer) dial(ctx context.Context) (net.Conn, error) {
	s.dials.Add(1)
	client, server := net.Pipe()
	go s.serve(server)
	return client, nil
}

func (s *fakeServer) serve(nc net.Conn) {
	defer nc.Close()
	conn := textproto.NewConn(nc)

	if err := conn.PrintfLine("200 fake news server ready"); err != nil {
		return
	}

	for {
		line, err := conn.ReadLine()
		if err != nil {
			return
		}
		cmd, arg, _ := strings.Cut(line, " ")

		switch strings.ToUpper(cmd) {
		case "AUTHINFO":
			kind, val, _ := strings.Cut(arg, " ")
			switch {
			case kind == "USER" && val == s.user:
				conn.PrintfLine("381 password required")
			case kind == "PASS" && val == s.pass:
				conn.PrintfLine("281 welcome")
			default:
				conn.PrintfLine("481 rejected")
			}
		case "ARTICLE":
			text, ok := s.articles[arg]
			if !ok {
				conn.PrintfLine("430 no such article")
				continue
			}
			conn.PrintfLine("220 0 %s", arg)
			w := conn.DotWriter()
			io.WriteString(w, text)
			w.Close()
		case "QUIT":
			conn.PrintfLine("205 bye")
			return
		default:
			conn.PrintfLine("500 what?")
		}
	}
}

const fetched = "Message-ID: <a@x>\nNewsgroups: misc.test\n\n.leading dot\nbody\n"

func TestProvider_Fetch(t *testing.T) {
	srv := &fakeServer{articles: map[string]string{"<a@x>": fetched}}
	p := newProvider(domain.ProviderConfig{ID: "fake", MaxConnection: 1}, srv.dial)
	defer p.Close()

	r, err := p.Fetch(context.Background(), "a@x")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, fetched, string(data))

	_, err = p.Fetch(context.Background(), "<missing@x>")
	assert.ErrorIs(t, err, domain.ErrArticleNotFound)

	// both fetches reused the one connection
	assert.Equal(t, int32(1), srv.dials.Load())
}

func TestProvider_Auth(t *testing.T) {
	srv := &fakeServer{
		articles: map[string]string{"<a@x>": fetched},
		user:     "reader",
		pass:     "secret",
	}

	p := newProvider(domain.ProviderConfig{ID: "fake", Username: "reader", Password: "secret"}, srv.dial)
	require.NoError(t, p.TestConnection())
	_, err := p.Fetch(context.Background(), "<a@x>")
	require.NoError(t, err)
	require.NoError(t, p.Close())

	bad := newProvider(domain.ProviderConfig{ID: "fake", Username: "reader", Password: "wrong"}, srv.dial)
	assert.Error(t, bad.TestConnection())
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "<a@x>", formatID("a@x"))
	assert.Equal(t, "<a@x>", formatID(" <a@x> "))
}
