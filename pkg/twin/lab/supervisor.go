// Package lab implements the supervisor process: the stdin-driven REPL
// that creates switches, wires links between them, and starts each
// switch's Telnet CLI on its own port (spec.md §2, §7). Grounded in
// cmd/newtron/shell.go's command-table REPL and pkg/newtlab's
// port-allocation idiom (SSHPortBase+i / ConsolePortBase+i).
package lab

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/newtron-network/swtwin/pkg/twin/fabric"
	"github.com/newtron-network/swtwin/pkg/twin/telnetsrv"
	"github.com/newtron-network/swtwin/pkg/twin/util"
)

// DefaultTelnetBase is the TelnetBase a Supervisor uses when none is
// given; the k-th switch added gets TelnetBase+k.
const DefaultTelnetBase = 9000

// Supervisor owns the switch registry, the set of running Telnet servers,
// and the node/link bookkeeping needed to re-serialize a topology with
// `save-topology`.
type Supervisor struct {
	Registry   *fabric.Registry
	TelnetBase int

	servers map[string]*telnetsrv.Server
	order   []string // node add order, for stable `list`/save-topology output
	links   []linkRecord
}

type linkRecord struct {
	SwitchA string
	PortA   int
	SwitchB string
	PortB   int
}

// NewSupervisor returns an empty supervisor allocating Telnet ports
// starting at telnetBase.
func NewSupervisor(telnetBase int) *Supervisor {
	if telnetBase <= 0 {
		telnetBase = DefaultTelnetBase
	}
	return &Supervisor{
		Registry:   fabric.NewRegistry(),
		TelnetBase: telnetBase,
		servers:    map[string]*telnetsrv.Server{},
	}
}

// AddNode registers a new switch and returns the handle.
func (sv *Supervisor) AddNode(name string) (*fabric.Switch, error) {
	sw, err := sv.Registry.Add(name)
	if err != nil {
		return nil, err
	}
	sv.order = append(sv.order, name)
	return sw, nil
}

// Link wires portA on swA to portB on swB and records it for
// save-topology.
func (sv *Supervisor) Link(swA string, portA int, swB string, portB int) error {
	if err := fabric.Link(sv.Registry, swA, portA, swB, portB); err != nil {
		return err
	}
	sv.links = append(sv.links, linkRecord{swA, portA, swB, portB})
	return nil
}

// StartTelnet starts a switch's Telnet CLI on its allocated port. The
// port is TelnetBase+index, where index is the node's position in
// add order, matching pkg/newtlab's "SSHPortBase + i" allocation scheme.
func (sv *Supervisor) StartTelnet(name string) (int, error) {
	sw, ok := sv.Registry.Lookup(name)
	if !ok {
		return 0, util.NewConfigError("start telnet", name, "no such switch")
	}
	if _, running := sv.servers[name]; running {
		return 0, util.NewConfigError("start telnet", name, "already started")
	}
	port := sv.TelnetBase + sv.indexOf(name)
	srv := telnetsrv.New(sw, sv.Registry, port)
	if err := srv.Start(); err != nil {
		return 0, err
	}
	sv.servers[name] = srv
	return port, nil
}

func (sv *Supervisor) indexOf(name string) int {
	for i, n := range sv.order {
		if n == name {
			return i
		}
	}
	return len(sv.order)
}

// StartAllTelnet starts the Telnet CLI for every node that doesn't
// already have one running, in add order. Used after a lab.yaml bootstrap
// load (spec.md §2, "a full lab.yaml boots straight to operator access").
func (sv *Supervisor) StartAllTelnet() error {
	for _, name := range sv.order {
		if _, running := sv.servers[name]; running {
			continue
		}
		if _, err := sv.StartTelnet(name); err != nil {
			return err
		}
	}
	return nil
}

// Names lists registered switches in add order.
func (sv *Supervisor) Names() []string {
	out := make([]string, len(sv.order))
	copy(out, sv.order)
	return out
}

// Run drives the stdin REPL until EOF, `exit`, or `quit`.
func (sv *Supervisor) Run(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "swtwin supervisor. Type 'help' for commands.")
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "lab> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(out, "exit")
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sv.dispatch(line, out) {
			return
		}
	}
}

// dispatch executes one REPL line, returning true if the session should end.
func (sv *Supervisor) dispatch(line string, out io.Writer) bool {
	args := strings.Fields(line)
	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "exit", "quit":
		return true
	case "help", "?":
		sv.cmdHelp(out)
	case "add":
		sv.cmdAdd(args, out)
	case "link":
		sv.cmdLink(args, out)
	case "list":
		sv.cmdList(out)
	case "start":
		sv.cmdStart(args, out)
	case "show":
		sv.cmdShow(args, out)
	case "load-topology":
		sv.cmdLoadTopology(args, out)
	case "save-topology":
		sv.cmdSaveTopology(args, out)
	default:
		fmt.Fprintf(out, "unknown command: %s (type 'help')\n", cmd)
	}
	return false
}

func (sv *Supervisor) cmdHelp(out io.Writer) {
	fmt.Fprintln(out, "commands:")
	fmt.Fprintln(out, "  add node <name>")
	fmt.Fprintln(out, "  link <sw1> <port1> <sw2> <port2>")
	fmt.Fprintln(out, "  list")
	fmt.Fprintln(out, "  start telnet <name>")
	fmt.Fprintln(out, "  show topology")
	fmt.Fprintln(out, "  load-topology <file.yaml>")
	fmt.Fprintln(out, "  save-topology <file.yaml>")
	fmt.Fprintln(out, "  exit | quit")
}

func (sv *Supervisor) cmdAdd(args []string, out io.Writer) {
	if len(args) != 2 || args[0] != "node" {
		fmt.Fprintln(out, "usage: add node <name>")
		return
	}
	if _, err := sv.AddNode(args[1]); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "added %s\n", args[1])
}

func (sv *Supervisor) cmdLink(args []string, out io.Writer) {
	if len(args) != 4 {
		fmt.Fprintln(out, "usage: link <sw1> <port1> <sw2> <port2>")
		return
	}
	portA, err1 := strconv.Atoi(args[1])
	portB, err2 := strconv.Atoi(args[3])
	if err1 != nil || err2 != nil {
		fmt.Fprintln(out, "error: ports must be integers")
		return
	}
	if err := sv.Link(args[0], portA, args[2], portB); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "linked %s/%d <-> %s/%d\n", args[0], portA, args[2], portB)
}

func (sv *Supervisor) cmdList(out io.Writer) {
	if len(sv.order) == 0 {
		fmt.Fprintln(out, "(no switches)")
		return
	}
	for _, name := range sv.order {
		status := "stopped"
		if _, running := sv.servers[name]; running {
			status = fmt.Sprintf("telnet :%d", sv.TelnetBase+sv.indexOf(name))
		}
		fmt.Fprintf(out, "  %-16s %s\n", name, status)
	}
}

func (sv *Supervisor) cmdStart(args []string, out io.Writer) {
	if len(args) != 2 || args[0] != "telnet" {
		fmt.Fprintln(out, "usage: start telnet <name>")
		return
	}
	port, err := sv.StartTelnet(args[1])
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "%s telnet listening on 127.0.0.1:%d\n", args[1], port)
}

func (sv *Supervisor) cmdShow(args []string, out io.Writer) {
	if len(args) != 1 || args[0] != "topology" {
		fmt.Fprintln(out, "usage: show topology")
		return
	}
	if len(sv.order) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}
	names := append([]string{}, sv.order...)
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "%s\n", name)
	}
	for _, l := range sv.links {
		fmt.Fprintf(out, "  %s/%d -- %s/%d\n", l.SwitchA, l.PortA, l.SwitchB, l.PortB)
	}
}

func (sv *Supervisor) cmdLoadTopology(args []string, out io.Writer) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: load-topology <file.yaml>")
		return
	}
	if err := sv.LoadTopologyFile(args[0]); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "loaded %s\n", args[0])
}

func (sv *Supervisor) cmdSaveTopology(args []string, out io.Writer) {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: save-topology <file.yaml>")
		return
	}
	if err := sv.SaveTopologyFile(args[0]); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "saved %s\n", args[0])
}
