// Package telnetsrv implements the per-switch Telnet transport: a plain
// byte-oriented, line-buffered TCP session on 127.0.0.1:<9000+k>, one
// goroutine per connection (spec.md §6).
package telnetsrv

import (
	"fmt"
	"net"

	"github.com/newtron-network/swtwin/pkg/twin/cli"
	"github.com/newtron-network/swtwin/pkg/twin/fabric"
	"github.com/newtron-network/swtwin/pkg/twin/util"
)

const (
	cr      = '\r'
	lf      = '\n'
	backspace = '\b'
	del     = 0x7f
)

// Server listens for Telnet connections to one switch's operator CLI.
type Server struct {
	SwitchName string
	Addr       string

	registry *fabric.Registry
	sw       *fabric.Switch
	listener net.Listener
}

// New builds a Telnet server for sw, bound to 127.0.0.1:port.
func New(sw *fabric.Switch, registry *fabric.Registry, port int) *Server {
	return &Server{
		SwitchName: sw.Name,
		Addr:       fmt.Sprintf("127.0.0.1:%d", port),
		registry:   registry,
		sw:         sw,
	}
}

// Start binds the listener and begins accepting connections in the
// background. A bind failure is a fatal startup error surfaced to the
// supervisor (spec.md §7, "Fatal conditions").
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("telnet listen %s: %w", s.Addr, err)
	}
	s.listener = ln
	util.WithSwitch(s.SwitchName).WithField("addr", s.Addr).Info("telnet server listening")

	go s.acceptLoop()
	return nil
}

// Stop closes the listener; in-flight connections are not forcibly
// closed, matching spec.md §5's "in-flight writes must flush before
// close".
func (s *Server) Stop() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	log := util.WithSwitch(s.SwitchName).WithField("remote", conn.RemoteAddr())
	log.Info("telnet session opened")

	sess := &cli.Session{Switch: s.sw, Registry: s.registry}
	fmt.Fprintf(conn, "%s> ", s.SwitchName)

	reader := newLineReader(conn)
	for {
		line, ok := reader.readLine()
		if !ok {
			log.Info("telnet session closed")
			return
		}
		if sess.Execute(line, conn) {
			return
		}
		fmt.Fprintf(conn, "%s> ", s.SwitchName)
	}
}
