package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/knadh/go-pop3"

	"github.com/ignite/customer-console/internal/domain"
)

// DialTester checks a mailbox by logging in and straight back out.
type DialTester struct {
	Timeout time.Duration
}

// NewDialTester returns a tester with the given per-connection timeout.
func NewDialTester(timeout time.Duration) *DialTester {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DialTester{Timeout: timeout}
}

// Test implements Tester.
func (t *DialTester) Test(ctx context.Context, s *domain.Server) error {
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	tlsCfg := &tls.Config{ServerName: s.Hostname, InsecureSkipVerify: !s.ValidateSSL} //nolint:gosec // customer-controlled
	if s.Service == domain.ServicePOP3 {
		return t.pop3(ctx, s, tlsCfg)
	}
	return t.imap(ctx, s, tlsCfg)
}

func (t *DialTester) imap(ctx context.Context, s *domain.Server, tlsCfg *tls.Config) error {
	addr := net.JoinHostPort(s.Hostname, strconv.Itoa(s.Port))
	conn, err := dial(ctx, addr, s.Protocol == domain.ProtocolSSL, tlsCfg)
	if err != nil {
		return err
	}

	opts := &imapclient.Options{TLSConfig: tlsCfg}
	var c *imapclient.Client
	if s.Protocol == domain.ProtocolTLS {
		if c, err = imapclient.NewStartTLS(conn, opts); err != nil {
			conn.Close()
			return fmt.Errorf("starttls: %w", err)
		}
	} else {
		c = imapclient.New(conn, opts)
	}
	defer c.Close()

	if err := c.WaitGreeting(); err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	if err := c.Login(s.Username, s.Password).Wait(); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	_ = c.Logout().Wait()
	return nil
}

func (t *DialTester) pop3(ctx context.Context, s *domain.Server, tlsCfg *tls.Config) error {
	p := pop3.New(pop3.Opt{
		Host:          s.Hostname,
		Port:          s.Port,
		DialTimeout:   t.Timeout,
		Dialer:        &pop3Dialer{ctx: ctx, protocol: s.Protocol, tls: tlsCfg},
		TLSEnabled:    false,
		TLSSkipVerify: !s.ValidateSSL,
	})
	c, err := p.NewConn()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Quit()

	if err := c.Auth(s.Username, s.Password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// dial opens a TCP or implicit-TLS connection bounded by ctx's deadline.
func dial(ctx context.Context, addr string, implicitTLS bool, tlsCfg *tls.Config) (net.Conn, error) {
	var (
		conn net.Conn
		err  error
	)
	if implicitTLS {
		d := &tls.Dialer{Config: tlsCfg}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	return conn, nil
}

// pop3Dialer hands go-pop3 an already secured connection. go-pop3 only
// knows implicit TLS, so STLS is negotiated here and the original greeting
// is replayed for the client to read.
type pop3Dialer struct {
	ctx      context.Context
	protocol domain.ServerProtocol
	tls      *tls.Config
}

func (d *pop3Dialer) Dial(_, addr string) (net.Conn, error) {
	conn, err := dial(d.ctx, addr, d.protocol == domain.ProtocolSSL, d.tls)
	if err != nil || d.protocol != domain.ProtocolTLS {
		return conn, err
	}

	r := bufio.NewReader(conn)
	greeting, err := r.ReadString('\n')
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	if _, err := conn.Write([]byte("STLS\r\n")); err != nil {
		conn.Close()
		return nil, err
	}
	reply, err := r.ReadString('\n')
	if err != nil {
		conn.Close()
		return nil, err
	}
	if !strings.HasPrefix(reply, "+OK") {
		conn.Close()
		return nil, fmt.Errorf("stls: %s", strings.TrimSpace(reply))
	}

	tc := tls.Client(conn, d.tls)
	if err := tc.HandshakeContext(d.ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("stls handshake: %w", err)
	}
	return &replayConn{Conn: tc, pending: []byte(greeting)}, nil
}

// replayConn serves pending before reading from the wrapped connection.
type replayConn struct {
	net.Conn
	pending []byte
}

func (c *replayConn) Read(b []byte) (int, error) {
	if len(c.pending) > 0 {
		n := copy(b, c.pending)
		c.pending = c.pending[n:]
		return n, nil
	}
	return c.Conn.Read(b)
}
