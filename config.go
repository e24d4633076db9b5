package main

import (
	"fmt"
	"os"
	"strconv"

	"git.sr.ht/~sircmpwn/getopt"
	"gopkg.in/yaml.v3"
)

const usageString = `Usage: macroemu [-itTdsv] [-b bound] [-c config] [-e entry]... [program.yaml]
  -b bound   cap For loop end values at bound (0 disables)
  -c file    read settings from a YAML config file
  -e entry   run this procedure (repeatable; default: the auto-exec names)
  -i         interactive shell
  -t         trace statements as they execute
  -T         trace variable changes
  -d         dump statement trees
  -s         print CPU usage after the run
  -v         more logging (repeatable)
  -h         this text`

type options struct {
	cfg         config
	interactive bool
	help        bool
	progFile    string
}

func defaultConfig() config {

	return config{
		LoopUpperBound: defaultLoopUpperBound,
		LogLevel:       "warn",
	}
}

func loadConfigFile(filename string, cfg *config) error {

	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	if _, ok := parseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%s: unknown log level %q", filename, cfg.LogLevel)
	}

	return nil
}

//
// Command line options override the config file, wherever -c appears
// on the line, so the file is read before anything else is applied
//

func parseOptions(args []string) (*options, error) {

	opts, optind, err := getopt.Getopts(args, "b:c:de:hisTtv")
	if err != nil {
		return nil, err
	}

	o := &options{cfg: defaultConfig()}

	for _, opt := range opts {
		if opt.Option == 'c' {
			if err := loadConfigFile(opt.Value, &o.cfg); err != nil {
				return nil, err
			}
		}
	}

	var entries []string
	verbosity := 0

	for _, opt := range opts {
		switch opt.Option {
		case 'b':
			n, err := strconv.Atoi(opt.Value)
			if err != nil {
				return nil, fmt.Errorf("bad loop bound %q", opt.Value)
			}

			o.cfg.LoopUpperBound = n

		case 'd':
			o.cfg.TraceDump = true

		case 'e':
			entries = append(entries, opt.Value)

		case 'h':
			o.help = true

		case 'i':
			o.interactive = true

		case 's':
			o.cfg.Stats = true

		case 'T':
			o.cfg.TraceVars = true

		case 't':
			o.cfg.TraceExec = true

		case 'v':
			verbosity++
		}
	}

	if len(entries) > 0 {
		o.cfg.EntryPoints = entries
	}

	switch {
	case verbosity == 1:
		o.cfg.LogLevel = levelNames[logInfo]
	case verbosity > 1:
		o.cfg.LogLevel = levelNames[logDebug]
	}

	rest := args[optind:]

	switch len(rest) {
	case 0:
	case 1:
		o.progFile = rest[0]
	default:
		return nil, fmt.Errorf("too many arguments")
	}

	return o, nil
}
