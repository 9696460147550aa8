// Package main is the settingsctl command, a small inspection and editing
// tool for persistent settings.
//
// Usage:
//
//	settingsctl -org acme [-app widget] [-subsystem core] [flags] <command> [args]
//
// Commands:
//
//	list                print every resolvable key and its value
//	get <key>           print the value of one key
//	set <key> <value>   assign a value and synchronize
//	remove <key>        remove a key and synchronize
//	locations           print the storage locations, highest precedence first
//	formats             print the registered storage formats
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/sprucekit/settings"
	"github.com/sprucekit/settings/backend/conf"
	"github.com/sprucekit/settings/backend/jsonconf"
	"github.com/sprucekit/settings/backend/tomlconf"
	"github.com/sprucekit/settings/registry"
	"github.com/sprucekit/settings/scope"
)

// Version information (set via ldflags during build).
var version = "dev"

type options struct {
	organization string
	application  string
	subsystem    string
	format       string
	system       bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, args := parseFlags()
	if len(args) == 0 {
		flag.Usage()
		return 2
	}

	reg := registry.New()
	conf.Register(reg)
	tomlconf.Register(reg)
	jsonconf.Register(reg)

	if args[0] == "formats" {
		for _, format := range reg.Formats() {
			fmt.Println(format)
		}
		return 0
	}

	s, err := newHandle(reg, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "settingsctl: %v\n", err)
		return 1
	}

	if err := dispatch(s, args); err != nil {
		fmt.Fprintf(os.Stderr, "settingsctl: %v\n", err)
		if errors.Is(err, settings.ErrMissingValue) {
			return 3
		}
		return 1
	}
	return 0
}

func parseFlags() (options, []string) {
	var opts options
	flag.StringVar(&opts.organization, "org", "", "organization name (required)")
	flag.StringVar(&opts.application, "app", "", "application name")
	flag.StringVar(&opts.subsystem, "subsystem", "", "subsystem name (requires -app)")
	flag.StringVar(&opts.format, "format", settings.DefaultFormat, "storage format")
	flag.BoolVar(&opts.system, "system", false, "use system-wide settings only")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("settingsctl %s\n", version)
		os.Exit(0)
	}
	return opts, flag.Args()
}

func newHandle(reg *registry.Registry, opts options) (*settings.Settings, error) {
	handleOpts := []settings.Option{settings.WithFormat(opts.format)}
	if opts.application != "" {
		handleOpts = append(handleOpts, settings.WithApplication(opts.application))
	}
	if opts.subsystem != "" {
		handleOpts = append(handleOpts, settings.WithSubsystem(opts.subsystem))
	}
	if opts.system {
		handleOpts = append(handleOpts, settings.WithBaseScope(scope.BaseSystem))
	}
	return settings.New(reg, opts.organization, handleOpts...)
}

func dispatch(s *settings.Settings, args []string) error {
	command, args := args[0], args[1:]

	switch command {
	case "list":
		keys, err := s.AllKeys()
		if err != nil {
			return err
		}
		for _, key := range keys {
			value, err := s.Value(key, "")
			if err != nil {
				return err
			}
			fmt.Printf("%s=%s\n", key, value)
		}
		return nil

	case "get":
		if len(args) != 1 {
			return errors.New("usage: get <key>")
		}
		value, err := s.RequiredValue(args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil

	case "set":
		if len(args) != 2 {
			return errors.New("usage: set <key> <value>")
		}
		if !s.Writable() {
			return fmt.Errorf("%w: format %q", settings.ErrWriteNotSupported, s.Format())
		}
		s.SetValue(args[0], args[1])
		return s.Sync()

	case "remove":
		if len(args) != 1 {
			return errors.New("usage: remove <key>")
		}
		if !s.Writable() {
			return fmt.Errorf("%w: format %q", settings.ErrWriteNotSupported, s.Format())
		}
		s.Remove(args[0])
		return s.Sync()

	case "locations":
		if err := s.Sync(); err != nil {
			return err
		}
		for _, location := range s.Locations() {
			fmt.Println(location)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
