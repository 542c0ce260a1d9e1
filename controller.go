package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/thiefmaster/braviactl/comm"
	"github.com/thiefmaster/braviactl/commands"
)

func usage(registry *commands.Registry) func() {
	return func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage: %s [options] <command> [args...]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(out, "\nCommands:\n")
		for _, name := range registry.Names() {
			d, _ := registry.Lookup(name)
			fmt.Fprintf(out, "  %-18s %s\n", name, d.Help)
		}
	}
}

func main() {
	log.SetFlags(0)

	debug := flag.Bool("debug", false, "log every frame sent and received")
	device := flag.String("device", "", "serial device of the display (default "+defaultPort+")")
	configPath := flag.String("config", "", "YAML device profile")
	listen := flag.String("listen", "", "serve commands over websocket on this address instead of running one (overrides bridge.listen)")

	cfg := defaultConfig()
	// the registry is rebuilt below once the profile is known; this one only
	// feeds the usage text
	flag.Usage = usage(commands.New(cfg.profile()))
	flag.Parse()

	if *configPath != "" {
		if err := cfg.load(*configPath); err != nil {
			log.Fatalf("%v", err)
		}
	}
	if *device != "" {
		cfg.Port = *device
	}
	if *listen != "" {
		cfg.Bridge.Listen = *listen
	}

	r := &runner{
		cfg:      cfg,
		registry: commands.New(cfg.profile()),
		open:     comm.OpenSerial,
	}
	if *debug {
		r.linkOpts = append(r.linkOpts, comm.WithTrace(log.New(os.Stderr, "debug: ", log.Lmicroseconds)))
	}

	// a profile with bridge.listen serves when no command is given; --listen
	// always serves
	if *listen != "" || (cfg.Bridge.Listen != "" && flag.NArg() == 0) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		if err := r.serve(ctx); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	value, err := r.runCommand(flag.Arg(0), flag.Args()[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	printValue(os.Stdout, value)
}
