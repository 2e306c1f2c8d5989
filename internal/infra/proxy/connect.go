package proxy

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-faster/errors"
	xproxy "golang.org/x/net/proxy"
)

func init() {
	xproxy.RegisterDialerType("http", newConnectDialer)
	xproxy.RegisterDialerType("https", newConnectDialer)
}

// connectDialer открывает TCP-туннель методом HTTP CONNECT. Для схемы https
// соединение с самим прокси оборачивается в TLS.
type connectDialer struct {
	addr       string
	auth       string
	useTLS     bool
	serverName string
	forward    xproxy.Dialer
}

func newConnectDialer(u *url.URL, forward xproxy.Dialer) (xproxy.Dialer, error) {
	if u.Port() == "" {
		return nil, errors.Errorf("proxy %q has no port", u.Redacted())
	}
	d := &connectDialer{
		addr:       u.Host,
		useTLS:     u.Scheme == "https",
		serverName: u.Hostname(),
		forward:    forward,
	}
	if u.User != nil {
		password, _ := u.User.Password()
		d.auth = base64.StdEncoding.EncodeToString([]byte(u.User.Username() + ":" + password))
	}
	return d, nil
}

// Dial реализует xproxy.Dialer.
func (d *connectDialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

// DialContext реализует xproxy.ContextDialer.
func (d *connectDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := d.dialProxy(ctx, network)
	if err != nil {
		return nil, err
	}

	// Дедлайн из ctx действует только на рукопожатие CONNECT.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })

	err = d.handshake(conn, addr)
	if !stop() {
		_ = conn.Close()
		return nil, ctx.Err()
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}

func (d *connectDialer) dialProxy(ctx context.Context, network string) (net.Conn, error) {
	var (
		conn net.Conn
		err  error
	)
	if cd, ok := d.forward.(xproxy.ContextDialer); ok {
		conn, err = cd.DialContext(ctx, network, d.addr)
	} else {
		conn, err = d.forward.Dial(network, d.addr)
	}
	if err != nil {
		return nil, errors.Wrap(err, "dial http proxy")
	}
	if !d.useTLS {
		return conn, nil
	}

	tlsConn := tls.Client(conn, &tls.Config{ServerName: d.serverName, MinVersion: tls.VersionTLS12})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "tls handshake with proxy")
	}
	return tlsConn, nil
}

// handshake отправляет CONNECT и ждёт 2xx. Клиент MTProto говорит первым,
// поэтому после ответа прокси в буфере чтения не остаётся данных туннеля.
func (d *connectDialer) handshake(conn net.Conn, addr string) error {
	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: addr},
		Host:   addr,
		Header: make(http.Header),
	}
	if d.auth != "" {
		req.Header.Set("Proxy-Authorization", "Basic "+d.auth)
	}
	if err := req.Write(conn); err != nil {
		return errors.Wrap(err, "write CONNECT")
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		return errors.Wrap(err, "read CONNECT response")
	}
	// Тело ответа на CONNECT не читаем: за заголовками начинается туннель.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("proxy CONNECT %s: %s", addr, resp.Status)
	}
	return nil
}
