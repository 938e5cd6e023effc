package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/postbox/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string   UDP listen address (e.g. ":9999")
//	-r string   storage root directory
//	-s string   storage driver: sqlite | postgres
//	-d string   database DSN
//	-b int      receive buffer size, bytes
//	-w int      max concurrent handlers, 0 for unbounded
//	-t int      handler timeout, seconds, 0 to disable
//	-m string   admin HTTP address for /metrics and /healthz
//	-l string   log format: json | console
//	-v string   log level: debug | info | warn | error
//
// Arguments not listed here (such as -c) are filtered out first. Invalid
// values panic.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-r", "-s", "-d", "-b", "-w", "-t", "-m", "-l", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "UDP address and port to listen on")
	fs.StringVar(&config.DataDir, "r", config.DataDir, "storage root directory")
	fs.StringVar(&config.StorageDriver, "s", config.StorageDriver, "storage driver (sqlite|postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.ReceiveBufferSize, "b", config.ReceiveBufferSize, "receive buffer size in bytes")
	fs.IntVar(&config.MaxInFlight, "w", config.MaxInFlight, "max concurrent handlers (0 = unbounded)")
	handlerTimeout := fs.Int("t", int(config.HandlerTimeout.Seconds()), "handler timeout in seconds (0 = none)")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "admin HTTP address")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format (json|console)")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.HandlerTimeout = time.Duration(*handlerTimeout) * time.Second
		}
	})
}
