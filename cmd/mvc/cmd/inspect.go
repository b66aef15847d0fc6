package cmd

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mvc-server/internal/container"
	"mvc-server/internal/protocol"
	"mvc-server/internal/router"
)

func newRoutesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the route table built from the configured scan package",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.offline(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			return printRoutes(cmd.OutOrStdout(), rt.app.Routes())
		},
	}
}

func newBeansCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "beans [name|alias ...]",
		Short: "Print beans in initialisation order with their injected dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.offline(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()
			beans, err := selectBeans(rt.app.Beans(), args)
			if err != nil {
				return err
			}
			return printBeans(cmd.OutOrStdout(), rt.app.Beans(), beans)
		},
	}
}

// offline bootstraps without dialling redis and with logging reduced to
// warnings, for inspection commands.
func (o *rootOptions) offline(cmd *cobra.Command) (*runtime, error) {
	if o.logLevel == "" {
		o.logLevel = "warn"
	}
	cfg, logger, err := o.load()
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()
	return newRuntime(cmd.Context(), cfg, logger, false)
}

func printRoutes(out io.Writer, routes []*router.Route) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tHANDLER\tBEAN\tPARAMS")
	for _, r := range routes {
		var params []string
		for _, p := range r.Params {
			if p.Role == router.ParamBound {
				params = append(params, p.Name+":"+p.Type.String())
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Path, r.HandlerRef(), r.Bean, strings.Join(params, ","))
	}
	return tw.Flush()
}

// selectBeans resolves names and interface aliases to beans. No names
// selects every bean.
func selectBeans(c *container.Container, names []string) ([]*container.Bean, error) {
	if len(names) == 0 {
		return c.Beans(), nil
	}
	out := make([]*container.Bean, 0, len(names))
	for _, name := range names {
		b, ok := c.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", protocol.ErrBeanNotFound, name)
		}
		out = append(out, b)
	}
	return out, nil
}

func printBeans(out io.Writer, c *container.Container, beans []*container.Bean) error {
	deps := map[string][]string{}
	for _, d := range c.Dependencies() {
		target := d.Resolved
		if target == "" {
			target = d.Target + "(missing)"
		}
		deps[d.Owner] = append(deps[d.Owner], d.Field+"="+target)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BEAN\tTYPE\tROLE\tDEPENDENCIES")
	for _, b := range beans {
		role := "external"
		if b.Descriptor != nil {
			role = b.Descriptor.Role.String()
		}
		d := deps[b.Name]
		sort.Strings(d)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Name, reflect.TypeOf(b.Instance), role, strings.Join(d, ","))
	}
	return tw.Flush()
}
