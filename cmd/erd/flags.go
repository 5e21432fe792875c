package main

import (
	"github.com/spf13/pflag"
)

// scriptFlags are shared by every command that runs a model script.
type scriptFlags struct {
	junctions string
}

func (f *scriptFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.junctions, "junctions", "", "Junction table policy for n:n edits (ask, accept, decline)")
}

// overrides collects the global and script flags that were set explicitly.
func (f *scriptFlags) overrides(fs *pflag.FlagSet) overrides {
	o := overrides{logLevel: logLevel}
	if fs.Changed("junctions") {
		o.junctions = f.junctions
	}
	return o
}

// changedString returns the value of a string flag if it was set explicitly.
func changedString(fs *pflag.FlagSet, name string) string {
	if !fs.Changed(name) {
		return ""
	}
	v, _ := fs.GetString(name)
	return v
}
