package common

const (
	// ServiceName is reported by health endpoints.
	ServiceName = "bowwow"
	// Version is reported by health endpoints and the CLI.
	Version = "1.0.0"

	// MaxSignalDistance is the outer limit of a signal, in distance units.
	MaxSignalDistance = 10.0
)
