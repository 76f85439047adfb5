// Command shvars is a demonstration CLI over the shvars variable and
// parameter-expansion core: it imports the host process environment,
// applies the assignments and operators given on the command line, and
// either prints the result or execs a child process with it, the same
// child-process boundary a real shell's executor sits on top of.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/cpsource/shvars/pkg/dynvar"
	"github.com/cpsource/shvars/pkg/environ"
	"github.com/cpsource/shvars/pkg/expand"
	"github.com/cpsource/shvars/pkg/pattern"
	"github.com/cpsource/shvars/pkg/shell"
	"github.com/cpsource/shvars/pkg/variable"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.1.0"

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "shvars:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "shvars",
		Short:         "inspect and manipulate shell-style variables from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newDumpCommand())
	root.AddCommand(newExportCommand())
	root.AddCommand(newTrimCommand())
	root.AddCommand(newSubstCommand())
	root.AddCommand(newExpandCommand())
	root.AddCommand(newRunCommand())
	return root
}

// newInterpreter builds an Interpreter seeded from the host process
// environment, logging through a production zap logger unless -q was
// given.
func newInterpreter(quiet bool) (*shell.Interpreter, environ.InvalidEnv) {
	logger, _ := zap.NewProduction()
	if quiet {
		logger = zap.NewNop()
	}
	in := shell.New(logger, &dynvar.Context{})

	imported, invalid := environ.Import(os.Environ())
	global := imported.Global()
	for _, name := range global.Names() {
		v, _ := global.Get(name)
		val, _ := v.Get()
		_ = in.BindGlobal(name, val, variable.SetOptions{})
		if existing, ok := in.Stack.LookupGlobal(name); ok {
			existing.Attrs = existing.Attrs.Set(variable.Exported).Set(variable.Imported)
		}
	}
	in.Projector.SetInvalidEnv(invalid)
	return in, invalid
}

func applyAssignments(in *shell.Interpreter, assigns []string) error {
	for _, a := range assigns {
		name, value, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("invalid assignment %q: expected NAME=VALUE", a)
		}
		if err := in.Bind(name, value, variable.SetOptions{}); err != nil {
			return fmt.Errorf("assigning %s: %w", name, err)
		}
	}
	return nil
}

func newDumpCommand() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "dump [NAME=VALUE ...] [NAME ...]",
		Short: "print declare -p-style descriptions of variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, invalid := newInterpreter(quiet)
			var assigns, names []string
			for _, a := range args {
				if strings.Contains(a, "=") {
					assigns = append(assigns, a)
				} else {
					names = append(names, a)
				}
			}
			if err := applyAssignments(in, assigns); err != nil {
				return err
			}

			if len(names) == 0 {
				for _, name := range in.Stack.Global().Names() {
					v, _ := in.Stack.Global().Get(name)
					printDescribed(v)
				}
				for _, raw := range invalid.Raw {
					fmt.Printf("# invalid_env: %s\n", raw)
				}
				return nil
			}
			for _, name := range names {
				v, ok := in.Stack.Lookup(name)
				if !ok {
					fmt.Fprintf(os.Stderr, "shvars: %s: not found\n", name)
					continue
				}
				printDescribed(v)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress diagnostic logging")
	return cmd
}

func printDescribed(v *variable.Variable) {
	desc, err := v.Describe()
	if err != nil {
		fmt.Fprintf(os.Stderr, "shvars: %s: %v\n", v.Name, err)
		return
	}
	fmt.Println(desc)
}

func newExportCommand() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "export [NAME=VALUE ...]",
		Short: "apply assignments and print the resulting NAME=VALUE environment vector",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := newInterpreter(quiet)
			if err := applyAssignments(in, args); err != nil {
				return err
			}
			for _, line := range in.ExportEnviron() {
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress diagnostic logging")
	return cmd
}

func newTrimCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "trim VALUE PATTERN",
		Short: "apply a substring-removal operator (#, ##, %, %%) to VALUE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseRemoveKind(kind)
			if err != nil {
				return err
			}
			v, err := expand.Remove(k, expand.NewScalar(args[0]), args[1], pattern.Options{})
			if err != nil {
				return err
			}
			fmt.Println(v.Scalar())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "op", "##", "removal operator: # ## % %%")
	return cmd
}

func parseRemoveKind(op string) (expand.RemoveKind, error) {
	switch op {
	case "#":
		return expand.ShortestPrefix, nil
	case "##":
		return expand.LongestPrefix, nil
	case "%":
		return expand.ShortestSuffix, nil
	case "%%":
		return expand.LongestSuffix, nil
	default:
		return 0, fmt.Errorf("unrecognized removal operator %q", op)
	}
}

func newSubstCommand() *cobra.Command {
	var mode string
	var noBackref bool
	cmd := &cobra.Command{
		Use:   "subst VALUE PATTERN [REPLACEMENT]",
		Short: "apply a substitution operator (/, //, /#, /%) to VALUE",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseSubstMode(mode)
			if err != nil {
				return err
			}
			rep := ""
			if len(args) == 3 {
				rep = args[2]
			}
			v, err := expand.Substitute(m, expand.NewScalar(args[0]), args[1], rep, false, !noBackref)
			if err != nil {
				return err
			}
			fmt.Println(v.Scalar())
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "op", "/", "substitution operator: / // /# /%")
	cmd.Flags().BoolVar(&noBackref, "no-backref", false, "treat & in REPLACEMENT literally (pre-4.4 BASH_COMPAT behavior)")
	return cmd
}

func parseSubstMode(op string) (expand.SubstMode, error) {
	switch op {
	case "/":
		return expand.First, nil
	case "//":
		return expand.All, nil
	case "/#":
		return expand.AnchoredBegin, nil
	case "/%":
		return expand.AnchoredEnd, nil
	default:
		return 0, fmt.Errorf("unrecognized substitution operator %q", op)
	}
}

func newExpandCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand VALUE OPSPEC",
		Short: `apply a raw "${var<op>}" operator spec, e.g. '##/*' or '//l/[&]', to VALUE`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := expand.ParseOperator(args[1])
			if err != nil {
				return err
			}
			scalar := expand.NewScalar(args[0])
			if op.IsRemoval() {
				v, err := expand.Remove(expand.RemoveKindFor(op.Kind), scalar, op.Pattern, pattern.Options{})
				if err != nil {
					return err
				}
				fmt.Println(v.Scalar())
				return nil
			}
			v, err := expand.Substitute(expand.SubstModeFor(op.Kind), scalar, op.Pattern, op.Replacement, false, true)
			if err != nil {
				return err
			}
			fmt.Println(v.Scalar())
			return nil
		},
	}
	return cmd
}

func newRunCommand() *cobra.Command {
	var assigns []string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "run -- COMMAND [ARGS...]",
		Short: "exec COMMAND with the current environment plus any -e NAME=VALUE assignments",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := newInterpreter(quiet)
			if err := applyAssignments(in, assigns); err != nil {
				return err
			}

			child := exec.Command(args[0], args[1:]...)
			child.Env = in.ExportEnviron()
			child.Stdin = os.Stdin
			child.Stdout = os.Stdout
			child.Stderr = os.Stderr
			if err := child.Run(); err != nil {
				var exitErr *exec.ExitError
				if ok := asExitError(err, &exitErr); ok {
					os.Exit(exitErr.ExitCode())
				}
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&assigns, "set", "e", nil, "NAME=VALUE assignment applied before exec, may repeat")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress diagnostic logging")
	return cmd
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}
