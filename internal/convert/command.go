// Package convert turns downloaded ODIM_H5 composites into CHMI-legend PNG
// radar products and runs configurable post-processing command chains on them.
package convert

// Command defines the interface for all PNG post-processing commands.
type Command interface {
	Name() string
	Execute(imageData []byte) ([]byte, error)
}

// CommandFactory is a function type that creates a command from configuration parameters.
type CommandFactory func(params map[string]any) (Command, error)

// CommandConfig represents a command configuration with name and parameters.
type CommandConfig struct {
	Name   string
	Params map[string]any
}
