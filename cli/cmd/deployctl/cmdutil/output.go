package cmdutil

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Oneof is a string flag restricted to a fixed set of values.
type Oneof struct {
	Value   string
	Allowed []string
	Flag    string // defaults to "output"
	Short   string // defaults to "o" when Flag is empty
	Desc    string // defaults to "Output format"
}

func (o *Oneof) AddFlag(cmd *cobra.Command) {
	name, short := o.flagName()
	cmd.Flags().AddFlag(&pflag.Flag{
		Name:      name,
		Shorthand: short,
		Usage:     o.Usage(),
		Value:     o,
		DefValue:  o.String(),
	})
	_ = cmd.RegisterFlagCompletionFunc(name, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return o.Allowed, cobra.ShellCompDirectiveNoFileComp
	})
}

func (o *Oneof) flagName() (name, short string) {
	if o.Flag == "" {
		return "output", "o"
	}
	return o.Flag, o.Short
}

func (o *Oneof) String() string { return o.Value }

func (o *Oneof) Type() string {
	name, _ := o.flagName()
	return name
}

func (o *Oneof) Set(v string) error {
	if slices.Contains(o.Allowed, v) {
		o.Value = v
		return nil
	}
	return errors.New("must be one of " + o.quoted())
}

func (o *Oneof) Usage() string {
	desc := o.Desc
	if desc == "" {
		desc = "Output format"
	}
	return desc + ". One of (" + o.quoted() + ")."
}

func (o *Oneof) quoted() string {
	var b strings.Builder
	n := len(o.Allowed)
	for i, s := range o.Allowed {
		if i > 0 {
			switch {
			case n == 2:
				b.WriteString(" or ")
			case i == n-1:
				b.WriteString(", or ")
			default:
				b.WriteString(", ")
			}
		}
		b.WriteString(strconv.Quote(s))
	}
	return b.String()
}
