package wasmcore

import "github.com/sirupsen/logrus"

// RuntimeConfig configures a Runtime. Each With* method returns a modified
// clone, leaving the receiver untouched, so a base config can be reused as
// the starting point for several runtimes.
type RuntimeConfig struct {
	logger         *logrus.Logger
	memoryMaxPages uint32
}

// NewRuntimeConfig returns the default configuration: the standard logrus
// logger and no module-supplied memory maximum override.
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{logger: logrus.StandardLogger()}
}

func (c *RuntimeConfig) clone() *RuntimeConfig {
	cp := *c
	return &cp
}

// WithLogger sets the logger used for compile and instantiate logging. The
// interpreter's trap log and the start-function log are written to logrus's
// standard logger, not to this one.
func (c *RuntimeConfig) WithLogger(logger *logrus.Logger) *RuntimeConfig {
	ret := c.clone()
	ret.logger = logger
	return ret
}

// WithMemoryMaxPages caps every instantiated module's memory at max pages,
// overriding a module's own declared maximum (but never raising it past
// what the module declares). Zero means no override.
func (c *RuntimeConfig) WithMemoryMaxPages(max uint32) *RuntimeConfig {
	ret := c.clone()
	ret.memoryMaxPages = max
	return ret
}

// ModuleConfig configures one InstantiateModule call.
type ModuleConfig struct {
	name string
}

// NewModuleConfig returns a default ModuleConfig with no name set; the
// instance is then registered under the empty string.
func NewModuleConfig() *ModuleConfig {
	return &ModuleConfig{}
}

func (c *ModuleConfig) clone() *ModuleConfig {
	cp := *c
	return &cp
}

// WithName sets the name this instantiation is registered and addressable
// under, both for Module.Name and as the exporting side of later imports.
func (c *ModuleConfig) WithName(name string) *ModuleConfig {
	ret := c.clone()
	ret.name = name
	return ret
}
