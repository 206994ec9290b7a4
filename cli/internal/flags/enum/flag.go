// Package enum provides a pflag value restricted to a fixed set of options.
package enum

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"
)

const Type = "enum"

// Flag is a flag.Value implementation for parsing flags with a one-of-a-set value
// from the provided options. The first option is used as the default value.
type Flag struct {
	target  *string
	options []string
}

var _ pflag.Value = (*Flag)(nil)

func (f *Flag) Type() string {
	return Type
}

// New returns a flag.Value implementation for parsing flags with a one-of-a-set value
// from the provided options. The first option is used as the default value.
func New(options ...string) *Flag {
	if len(options) == 0 {
		panic("options must not be empty")
	}
	def := options[0]
	return &Flag{target: &def, options: options}
}

func (f *Flag) String() string {
	return *f.target
}

func (f *Flag) Set(value string) error {
	if !slices.Contains(f.options, value) {
		return fmt.Errorf("expected one of %q", f.options)
	}
	*f.target = value
	return nil
}

// Options returns a copy of the allowed values in declaration order.
func (f *Flag) Options() []string {
	return slices.Clone(f.options)
}

// Var registers an enum flag on the flag set. The first option is the default.
func Var(f *pflag.FlagSet, name string, options []string, usage string) {
	VarP(f, name, "", options, usage)
}

// VarP is like Var but accepts a shorthand letter.
func VarP(f *pflag.FlagSet, name, shorthand string, options []string, usage string) {
	flag := New(options...)
	sorted := slices.Clone(options)
	slices.Sort(sorted)
	f.VarP(flag, name, shorthand, fmt.Sprintf("%s\n(must be one of %v)", usage, sorted))
}

// Get returns the current value of the enum flag called name.
func Get(f *pflag.FlagSet, name string) (string, error) {
	flag := f.Lookup(name)
	if flag == nil {
		return "", fmt.Errorf("flag accessed but not defined: %s", name)
	}
	if flag.Value.Type() != Type {
		return "", fmt.Errorf("trying to get %s value of flag of type %s", Type, flag.Value.Type())
	}
	return flag.Value.String(), nil
}
