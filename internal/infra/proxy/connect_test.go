package proxy_test

import (
	"bufio"
	"context"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"horizon-tapper/internal/infra/proxy"
)

type connectRequest struct {
	method string
	host   string
	auth   string
}

// startConnectProxy поднимает минимальный HTTP-прокси: принимает один CONNECT,
// отвечает status и, если он 200, работает как эхо-сервер туннеля.
func startConnectProxy(t *testing.T, status int) (*proxy.Proxy, <-chan connectRequest) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	seen := make(chan connectRequest, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		br := bufio.NewReader(conn)
		req, err := http.ReadRequest(br)
		if err != nil {
			return
		}
		seen <- connectRequest{method: req.Method, host: req.Host, auth: req.Header.Get("Proxy-Authorization")}

		_, _ = io.WriteString(conn, "HTTP/1.1 "+strconv.Itoa(status)+" "+http.StatusText(status)+"\r\n\r\n")
		if status != http.StatusOK {
			return
		}
		_, _ = io.Copy(conn, br)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return &proxy.Proxy{Scheme: "http", Host: "127.0.0.1", Port: addr.Port, Login: "user", Password: "secret"}, seen
}

func TestConnectDialerTunnel(t *testing.T) {
	t.Parallel()

	p, seen := startConnectProxy(t, http.StatusOK)
	dialer, err := p.Dialer()
	if err != nil {
		t.Fatalf("Dialer() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := dialer.DialContext(ctx, "tcp", "149.154.167.50:443")
	if err != nil {
		t.Fatalf("DialContext() error = %v", err)
	}
	defer conn.Close()

	got := <-seen
	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("user:secret"))
	if got.method != http.MethodConnect || got.host != "149.154.167.50:443" || got.auth != wantAuth {
		t.Fatalf("proxy saw %+v", got)
	}

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if string(buf) != "ping" {
		t.Fatalf("tunnel echoed %q, want %q", buf, "ping")
	}
}

func TestConnectDialerRejected(t *testing.T) {
	t.Parallel()

	p, _ := startConnectProxy(t, http.StatusProxyAuthRequired)
	dialer, err := p.Dialer()
	if err != nil {
		t.Fatalf("Dialer() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if conn, err := dialer.DialContext(ctx, "tcp", "149.154.167.50:443"); err == nil {
		_ = conn.Close()
		t.Fatal("DialContext() error = nil, want error for 407")
	}
}
