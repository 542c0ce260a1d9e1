package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/thiefmaster/braviactl/bridge"
	"github.com/thiefmaster/braviactl/comm"
	"github.com/thiefmaster/braviactl/commands"
)

type portOpener func(comm.PortConfig) (io.ReadWriteCloser, error)

type runner struct {
	cfg      appConfig
	registry *commands.Registry
	open     portOpener
	linkOpts []comm.LinkOption
}

// runCommand validates the command before the port is opened, so bad input
// never touches the device.
func (r *runner) runCommand(name string, args []string) (interface{}, error) {
	call, err := r.registry.Prepare(name, args)
	if err != nil {
		return nil, err
	}
	if !call.NeedsLink() {
		return call.Run(nil)
	}
	conn, err := r.open(r.cfg.portConfig())
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return call.Run(comm.NewLink(conn, r.linkOpts...))
}

// serve runs the bridge on cfg.Bridge.Listen. The port is closed only after
// the bridge has stopped all exchanges.
func (r *runner) serve(ctx context.Context) error {
	conn, err := r.open(r.cfg.portConfig())
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("opened serial port %s\n", r.cfg.Port)
	srv := bridge.New(r.registry, comm.NewLink(conn, r.linkOpts...), r.cfg.Bridge)
	return srv.ListenAndServe(ctx)
}

func printValue(w io.Writer, value interface{}) {
	switch v := value.(type) {
	case nil:
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	default:
		fmt.Fprintln(w, v)
	}
}
