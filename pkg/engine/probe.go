package engine

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/osprey-sec/osprey/pkg/proxyspec"
)

const defaultUserAgent = "osprey/1.0"

// commonPorts is the probe order for network plugins, most common first.
// PortWaves selects how deep into this list a wave reaches.
var commonPorts = []int{
	80, 443, 22, 21, 25, 53, 110, 143, 3306, 8080,
	8443, 445, 139, 135, 3389, 1433, 5432, 5900, 6379, 111,
	995, 993, 587, 465, 2049, 11211, 27017, 161, 389, 636,
}

const (
	connectTimeout = 5 * time.Second
	requestTimeout = 10 * time.Second
)

// probeTCP attempts a TCP connection to host:port and reports the remote
// address on success.
func probeTCP(host string, port int) (string, bool) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), connectTimeout)
	if err != nil {
		return "", false
	}
	defer conn.Close()

	ip, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		ip = conn.RemoteAddr().String()
	}
	return ip, true
}

// webTarget is a normalized web probe destination.
type webTarget struct {
	host string
	port string
	tls  bool
}

// splitWebTarget normalizes a scope entry (optionally carrying a scheme and
// port) into host, port and TLS mode.
func splitWebTarget(target string) webTarget {
	t := webTarget{port: "80"}
	rest := target
	if before, after, found := strings.Cut(target, "://"); found {
		rest = after
		if before == "https" {
			t.tls = true
			t.port = "443"
		}
	}
	rest = strings.TrimSuffix(rest, "/")
	if host, port, err := net.SplitHostPort(rest); err == nil {
		t.host = host
		t.port = port
	} else {
		t.host = rest
	}
	return t
}

// dialTarget opens the transport connection for a web probe. A socks
// outbound endpoint gets a full SOCKS5 handshake to the target; http and
// scheme-less endpoints are dialed as the next hop on the wire. No outbound
// means a direct dial. TLS targets are wrapped after the route is up, so the
// handshake also rides the proxy.
func dialTarget(t webTarget, outbound *proxyspec.Endpoint) (net.Conn, error) {
	targetAddr := net.JoinHostPort(t.host, t.port)
	dialer := &net.Dialer{Timeout: connectTimeout}

	var conn net.Conn
	var err error
	switch {
	case outbound == nil:
		conn, err = dialer.Dial("tcp", targetAddr)
	case outbound.Scheme == "socks":
		proxyAddr := net.JoinHostPort(outbound.Host, strconv.Itoa(outbound.Port))
		var socks proxy.Dialer
		socks, err = proxy.SOCKS5("tcp", proxyAddr, nil, dialer)
		if err == nil {
			conn, err = socks.Dial("tcp", targetAddr)
		}
	default:
		conn, err = dialer.Dial("tcp", net.JoinHostPort(outbound.Host, strconv.Itoa(outbound.Port)))
	}
	if err != nil {
		return nil, err
	}
	if !t.tls {
		return conn, nil
	}

	tlsConn := tls.Client(conn, &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         t.host,
	})
	tlsConn.SetDeadline(time.Now().Add(connectTimeout))
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	tlsConn.SetDeadline(time.Time{})
	return tlsConn, nil
}

// probeHTTP issues a minimal HEAD request to the target and parses the
// status line and Server header out of the raw response. When outbound is
// set the connection is routed through that proxy.
func probeHTTP(target string, outbound *proxyspec.Endpoint, userAgent string, timeout time.Duration) (status int, server string, ok bool) {
	t := splitWebTarget(target)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout <= 0 {
		timeout = requestTimeout
	}

	conn, err := dialTarget(t, outbound)
	if err != nil {
		return 0, "", false
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	request := fmt.Sprintf("HEAD / HTTP/1.1\r\nHost: %s\r\nUser-Agent: %s\r\nConnection: close\r\n\r\n", t.host, userAgent)
	if _, err = conn.Write([]byte(request)); err != nil {
		return 0, "", false
	}

	buffer := make([]byte, 4096)
	n, err := conn.Read(buffer)
	if err != nil || n == 0 {
		return 0, "", false
	}

	status, server = parseResponseHead(string(buffer[:n]))
	return status, server, status > 0
}

// parseResponseHead extracts the status code and Server header from a raw
// HTTP response head.
func parseResponseHead(response string) (status int, server string) {
	lines := strings.Split(response, "\n")
	if len(lines) > 0 {
		parts := strings.Fields(lines[0])
		if len(parts) >= 2 {
			if code, err := strconv.Atoi(parts[1]); err == nil {
				status = code
			}
		}
	}
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "server:") {
			server = strings.TrimSpace(line[len("server:"):])
		}
	}
	return status, server
}

// firstWave parses the comma-separated port wave sizes and returns the
// ports of the first wave. Malformed or empty specs fall back to the
// default first wave of 10.
func firstWave(portWaves string) []int {
	size := 10
	if portWaves != "" {
		if n, err := strconv.Atoi(strings.Split(portWaves, ",")[0]); err == nil && n > 0 {
			size = n
		}
	}
	if size > len(commonPorts) {
		size = len(commonPorts)
	}
	return commonPorts[:size]
}
