package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/bowwow/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-w string   HTTP/WebSocket bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-k string   base64 location encryption key
//	-l string   log level (debug, info, warn, error)
//	-p string   push gateway base URL
//	-b string   S3 archive bucket
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-u string   S3 access key
//	-s string   S3 secret key
//
// os.Args is filtered with flagx.FilterArgs first so flags owned by other
// components do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-w", "-d", "-k", "-l", "-p", "-b", "-g", "-e", "-u", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.GRPCAddr, "a", config.GRPCAddr, "address and port of the gRPC API")
	fs.StringVar(&config.HTTPAddr, "w", config.HTTPAddr, "address and port of the HTTP/WebSocket server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LocationKey, "k", config.LocationKey, "base64 location encryption key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.PushEndpoint, "p", config.PushEndpoint, "push gateway base URL")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 archive bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3User, "u", config.S3User, "S3 access key")
	fs.StringVar(&config.S3Password, "s", config.S3Password, "S3 secret key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

// parseEnv reads key material from the environment; it wins over files and
// flags so secrets never have to appear on a command line.
func parseEnv(config *Config) {
	flagx.EnvString(&config.LocationKey, EnvLocationKey)
	flagx.EnvString(&config.LocationKeyPassphrase, EnvLocationKeyPassphrase)
}
