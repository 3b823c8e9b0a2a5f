// Package proxyspec parses the compact proxy and TOR specifications accepted
// on the command line into structured endpoint descriptors.
//
// Three grammars are supported:
//
//	outbound: [scheme"://"]host":"port        e.g. socks://127.0.0.1:9050
//	inbound:  [host":"]port                   e.g. 127.0.0.1:8008 or 8008
//	tor:      ip:port:user:pass:flag | help   e.g. ::u:p:1
package proxyspec

import (
	"errors"
	"strconv"
	"strings"

	"github.com/osprey-sec/osprey/pkg/usage"
)

// Defaults substituted for blank fields in a TOR specification.
const (
	DefaultTorIP   = "127.0.0.1"
	DefaultTorPort = "9050"
)

// ErrTorHelp is returned by ParseTor when the user asked for TOR
// configuration guidance instead of supplying a specification. Callers are
// expected to print Guidance() and stop with a success status.
var ErrTorHelp = errors.New("proxyspec: tor configuration help requested")

// Endpoint is a parsed outbound proxy descriptor.
type Endpoint struct {
	Scheme string // "socks" or "http"; empty when the spec carried no scheme
	Host   string
	Extra  string // middle field of a schemeless three-field spec, if any
	Port   int
}

// Inbound is a parsed inbound proxy descriptor. Host is empty when the
// specification carried only a port.
type Inbound struct {
	Host string
	Port int
}

// TorSpec is a parsed five-field TOR mode specification.
type TorSpec struct {
	IP       string
	Port     string
	AuthUser string
	AuthPass string
	AuthFlag string
}

// OutboundURL renders the outbound proxy derived from TOR mode. TOR always
// speaks SOCKS.
func (t *TorSpec) OutboundURL() string {
	return "socks://" + t.IP + ":" + t.Port
}

// ParseOutbound parses an outbound proxy specification. The scheme, when
// present, must be socks or http; the final colon-delimited field must be a
// base-10 port.
func ParseOutbound(spec string) (*Endpoint, error) {
	var fields []string
	scheme := ""

	if before, after, found := strings.Cut(spec, "://"); found {
		scheme = before
		if scheme != "socks" && scheme != "http" {
			return nil, usage.Errorf("invalid argument for outbound proxy: unknown scheme %q", scheme)
		}
		fields = strings.Split(after, ":")
		// The scheme counts as one field of the overall spec.
		if len(fields) != 1 && len(fields) != 2 {
			return nil, usage.Errorf("invalid argument for outbound proxy: %q", spec)
		}
	} else {
		fields = strings.Split(spec, ":")
		if len(fields) != 2 && len(fields) != 3 {
			return nil, usage.Errorf("invalid argument for outbound proxy: %q", spec)
		}
	}

	port, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return nil, usage.Errorf("invalid port provided for outbound proxy: %q", fields[len(fields)-1])
	}

	ep := &Endpoint{Scheme: scheme, Host: fields[0], Port: port}
	if len(fields) == 3 {
		ep.Extra = fields[1]
	}
	return ep, nil
}

// ParseInbound parses an inbound proxy specification of the form port or
// host:port.
func ParseInbound(spec string) (*Inbound, error) {
	fields := strings.Split(spec, ":")
	if len(fields) != 1 && len(fields) != 2 {
		return nil, usage.Errorf("invalid argument for inbound proxy: %q", spec)
	}
	port, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return nil, usage.Errorf("invalid port provided for inbound proxy: %q", fields[len(fields)-1])
	}
	in := &Inbound{Port: port}
	if len(fields) == 2 {
		in.Host = fields[0]
	}
	return in, nil
}

// ParseTor parses a TOR mode specification. The single literal "help" yields
// ErrTorHelp. Anything else must be exactly five colon-delimited fields;
// blank ip/port fields fall back to the local TOR defaults.
func ParseTor(spec string) (*TorSpec, error) {
	fields := strings.Split(spec, ":")
	if len(fields) == 1 {
		if fields[0] == "help" {
			return nil, ErrTorHelp
		}
		return nil, usage.Errorf("invalid argument for tor mode: %q", spec)
	}
	if len(fields) != 5 {
		return nil, usage.Errorf("invalid argument for tor mode: %q", spec)
	}

	t := &TorSpec{
		IP:       fields[0],
		Port:     fields[1],
		AuthUser: fields[2],
		AuthPass: fields[3],
		AuthFlag: fields[4],
	}
	if t.IP == "" {
		t.IP = DefaultTorIP
	}
	if t.Port == "" {
		t.Port = DefaultTorPort
	}
	return t, nil
}

// Guidance is the help text printed when TOR mode is invoked with "help".
func Guidance() string {
	return `TOR mode expects a five-field specification: ip:port:user:pass:flag

  ip     address of the TOR SOCKS listener (blank for ` + DefaultTorIP + `)
  port   port of the TOR SOCKS listener (blank for ` + DefaultTorPort + `)
  user   TOR control authentication username
  pass   TOR control authentication password
  flag   set to 1 to renew the TOR circuit between waves

Example: --tor-mode=::myuser:mypass:1

Make sure a TOR daemon is running locally and that its SOCKS listener
matches the ip and port supplied above. The derived outbound proxy is
always socks://ip:port.
`
}
