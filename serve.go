package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/Jon-Bright/rccctl/board"
	"github.com/Jon-Bright/rccctl/delay"
	"github.com/Jon-Bright/rccctl/rcc"
)

var errQuit = errors.New("quit")

// Server answers clock queries over a line-based TCP protocol, one command
// per line.
type Server struct {
	l   net.Listener
	b   *board.Board
	seq *rcc.Sequencer
	// mu serialises register access between connections.
	mu sync.Mutex
}

func NewServer(port int, b *board.Board, seq *rcc.Sequencer) (*Server, error) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	log.Printf("Listening on port %d", port)
	return &Server{l: l, b: b, seq: seq}, nil
}

func (s *Server) reply(cmd string, args []string) (string, error) {
	c := s.b.Clocks
	switch cmd {
	case "SYSCLK":
		return strconv.FormatUint(uint64(c.SysClk()), 10), nil
	case "HCLK":
		return strconv.FormatUint(uint64(c.HClk()), 10), nil
	case "PCLK1":
		return strconv.FormatUint(uint64(c.PClk1()), 10), nil
	case "PCLK2":
		return strconv.FormatUint(uint64(c.PClk2()), 10), nil
	case "ADCCLK":
		return strconv.FormatUint(uint64(c.ADCClk()), 10), nil
	case "SOURCE":
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.seq.CurrentSource(c).String(), nil
	case "VALIDATE":
		if err := rcc.Validate(c); err != nil {
			return "", err
		}
		return "OK", nil
	case "CYCLES":
		if len(args) != 2 {
			return "", errors.New("usage: CYCLES US|MS|S n")
		}
		n, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return "", fmt.Errorf("error parsing count: %v", err)
		}
		switch strings.ToUpper(args[0]) {
		case "US":
			return strconv.FormatUint(uint64(delay.CyclesUs(c.SysClk(), n)), 10), nil
		case "MS":
			return strconv.FormatUint(uint64(delay.CyclesMs(c.SysClk(), n)), 10), nil
		case "S":
			return strconv.FormatUint(uint64(delay.CyclesS(c.SysClk(), n)), 10), nil
		}
		return "", fmt.Errorf("unknown unit %q", args[0])
	case "QUIT":
		return "", errQuit
	}
	return "", errors.New("unknown command")
}

func (s *Server) handleConnection(c net.Conn) {
	log.Printf("Handling connection from %v", c.RemoteAddr())
	defer c.Close()
	r := bufio.NewReader(c)
	w := bufio.NewWriter(c)
	for {
		l, err := r.ReadString('\n')
		if err == io.EOF {
			log.Printf("EOF for connection %v", c.RemoteAddr())
			return
		}
		if err != nil {
			log.Printf("Error reading string for connection %v: %v", c.RemoteAddr(), err)
			return
		}
		t, err := shlex.Split(l)
		if err != nil {
			w.WriteString("ERR " + err.Error() + "\n")
		} else if len(t) == 0 {
			continue
		} else {
			log.Printf("Got command %q", t)
			resp, err := s.reply(strings.ToUpper(t[0]), t[1:])
			if err == errQuit {
				return
			}
			if err != nil {
				resp = "ERR " + err.Error()
			}
			w.WriteString(resp + "\n")
		}
		if err := w.Flush(); err != nil {
			log.Printf("error writing reply: %v", err)
			return
		}
	}
}

func (s *Server) handleConnections() {
	for {
		conn, err := s.l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("Error accepting connection: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func newServeCmd(opts *options) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer clock queries over TCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.loadBoard()
			if err != nil {
				return err
			}
			f, release, err := opts.openDevice(b)
			if err != nil {
				return err
			}
			defer release()
			s, err := NewServer(port, b, opts.sequencer(f))
			if err != nil {
				return fmt.Errorf("failed creating server: %w", err)
			}
			s.handleConnections()
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 24601, "the port that the server should listen to")
	return cmd
}
