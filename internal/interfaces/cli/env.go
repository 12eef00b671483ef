package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/chemenv/pkg/client"
	"github.com/turtacn/chemenv/pkg/errors"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// NewEnvCmd creates the env command group. Stored environments live on a
// server, so every subcommand needs --server.
func NewEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage environments stored on a chemenv server",
	}
	cmd.AddCommand(
		newEnvCreateCmd(),
		newEnvGetCmd(),
		newEnvListCmd(),
		newEnvDeleteCmd(),
		newEnvAddAtomCmd(),
		newEnvRemoveAtomCmd(),
		newEnvAddDecoratorCmd(),
		newEnvRevisionsCmd(),
		newEnvSearchCmd(),
	)
	return cmd
}

// envRun resolves the SDK client and the command context before fn runs.
func envRun(fn func(cmd *cobra.Command, cc *CLIContext, envs *client.EnvironmentsClient, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cc, err := GetCLIContext(cmd)
		if err != nil {
			return err
		}
		if cc.Client == nil {
			return errors.InvalidParam("env commands require --server")
		}
		return fn(cmd, cc, cc.Client.Environments(), args)
	}
}

func newEnvCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <pattern|->",
		Short: "Store a new environment",
		Args:  cobra.ExactArgs(1),
		RunE: envRun(func(cmd *cobra.Command, cc *CLIContext, envs *client.EnvironmentsClient, args []string) error {
			pattern, err := patternArg(cmd, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()
			rec, err := envs.Create(ctx, pattern)
			if err != nil {
				return err
			}
			return printRecord(cmd, cc, rec)
		}),
	}
}

func newEnvGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a stored environment",
		Args:  cobra.ExactArgs(1),
		RunE: envRun(func(cmd *cobra.Command, cc *CLIContext, envs *client.EnvironmentsClient, args []string) error {
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()
			rec, err := envs.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printRecord(cmd, cc, rec)
		}),
	}
}

func newEnvListCmd() *cobra.Command {
	var page, pageSize int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored environments in creation order",
		Args:  cobra.NoArgs,
		RunE: envRun(func(cmd *cobra.Command, cc *CLIContext, envs *client.EnvironmentsClient, args []string) error {
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()
			list, err := envs.List(ctx, page, pageSize)
			if err != nil {
				return err
			}
			if cc.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]string, 0, len(list.Items))
			for _, r := range list.Items {
				rows = append(rows, []string{r.ID, r.Category, strconv.FormatInt(r.Version, 10), r.SMIRKS, r.UpdatedAt.Format(time.RFC3339)})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "CATEGORY", "VERSION", "SMIRKS", "UPDATED"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d\n", len(list.Items), list.Total)
			return nil
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "items per page; 0 uses the server default")
	return cmd
}

func newEnvDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored environment",
		Args:  cobra.ExactArgs(1),
		RunE: envRun(func(cmd *cobra.Command, cc *CLIContext, envs *client.EnvironmentsClient, args []string) error {
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()
			if err := envs.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: deleted %s\n", args[0])
			return nil
		}),
	}
}

func newEnvAddAtomCmd() *cobra.Command {
	var (
		parent, label   int
		orSpecs, and    []string
		bondOr, bondAnd []string
	)
	cmd := &cobra.Command{
		Use:   "add-atom <id>",
		Short: "Attach a new atom to an existing one",
		Long: "Attach a new atom to the atom at --parent. OR alternatives are written\n" +
			"primary+decorator+decorator, e.g. --or '#8+X2' --or '#7'.",
		Args: cobra.ExactArgs(1),
		RunE: envRun(func(cmd *cobra.Command, cc *CLIContext, envs *client.EnvironmentsClient, args []string) error {
			req := envtypes.AddAtomRequest{
				Parent:       parent,
				ORTypes:      parseORSpecs(orSpecs),
				ANDTypes:     and,
				BondORTypes:  parseORSpecs(bondOr),
				BondANDTypes: bondAnd,
				Label:        label,
			}
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()
			res, err := envs.AddAtom(ctx, args[0], req)
			if err != nil {
				return err
			}
			if cc.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			writeRecord(cmd.OutOrStdout(), &res.Record)
			fmt.Fprintf(cmd.OutOrStdout(), "Added at:  %d\n", res.Position)
			return nil
		}),
	}
	f := cmd.Flags()
	f.IntVar(&parent, "parent", 0, "position of the atom to attach to")
	f.IntVar(&label, "label", 0, "map label of the new atom; 0 leaves it unlabeled")
	f.StringArrayVar(&orSpecs, "or", nil, "atom OR alternative (repeatable)")
	f.StringArrayVar(&and, "and", nil, "atom AND term (repeatable)")
	f.StringArrayVar(&bondOr, "bond-or", nil, "bond OR alternative (repeatable)")
	f.StringArrayVar(&bondAnd, "bond-and", nil, "bond AND term (repeatable)")
	return cmd
}

func newEnvRemoveAtomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-atom <id> <position>",
		Short: "Remove an unlabeled terminal atom",
		Args:  cobra.ExactArgs(2),
		RunE: envRun(func(cmd *cobra.Command, cc *CLIContext, envs *client.EnvironmentsClient, args []string) error {
			pos, err := strconv.Atoi(args[1])
			if err != nil || pos < 0 {
				return errors.InvalidParam("position must be a non-negative integer").WithDetail(args[1])
			}
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()
			res, err := envs.RemoveAtom(ctx, args[0], pos)
			if err != nil {
				return err
			}
			if cc.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			writeRecord(cmd.OutOrStdout(), &res.Record)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed:   %s\n", yesNo(res.Removed))
			return nil
		}),
	}
}

func newEnvAddDecoratorCmd() *cobra.Command {
	var (
		kind, orSpec, andTerm string
		position              int
	)
	cmd := &cobra.Command{
		Use:   "add-decorator <id>",
		Short: "Append an OR alternative or AND term to an atom or bond",
		Args:  cobra.ExactArgs(1),
		RunE: envRun(func(cmd *cobra.Command, cc *CLIContext, envs *client.EnvironmentsClient, args []string) error {
			if (orSpec == "") == (andTerm == "") {
				return errors.InvalidParam("exactly one of --or and --and is required")
			}
			req := envtypes.AddDecoratorRequest{Kind: kind, Position: position, ANDType: andTerm}
			if orSpec != "" {
				specs := parseORSpecs([]string{orSpec})
				req.ORType = &specs[0]
			}
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()
			rec, err := envs.AddDecorator(ctx, args[0], req)
			if err != nil {
				return err
			}
			return printRecord(cmd, cc, rec)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&kind, "kind", "atom", "component kind: atom or bond")
	f.IntVar(&position, "position", 0, "position of the atom or bond")
	f.StringVar(&orSpec, "or", "", "OR alternative, primary+decorator...")
	f.StringVar(&andTerm, "and", "", "AND term")
	return cmd
}

// parseORSpecs splits "primary+dec+dec" specs.
func parseORSpecs(in []string) []envtypes.ORTypeSpec {
	if len(in) == 0 {
		return nil
	}
	out := make([]envtypes.ORTypeSpec, 0, len(in))
	for _, s := range in {
		parts := strings.Split(s, "+")
		spec := envtypes.ORTypeSpec{Primary: parts[0]}
		for _, d := range parts[1:] {
			if d != "" {
				spec.Decorators = append(spec.Decorators, d)
			}
		}
		out = append(out, spec)
	}
	return out
}

func newEnvRevisionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revisions <id> [version]",
		Short: "Show the archived revisions of an environment",
		Args:  cobra.RangeArgs(1, 2),
		RunE: envRun(func(cmd *cobra.Command, cc *CLIContext, envs *client.EnvironmentsClient, args []string) error {
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()
			if len(args) == 2 {
				version, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return errors.InvalidParam("version must be an integer").WithDetail(args[1])
				}
				rev, err := envs.Revision(ctx, args[0], version)
				if err != nil {
					return err
				}
				if cc.OutputFormat == OutputJSON {
					return printJSON(cmd.OutOrStdout(), rev)
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Version:   %d\n", rev.Version)
				fmt.Fprintf(w, "Operation: %s\n", rev.Operation)
				fmt.Fprintf(w, "SMIRKS:    %s\n", rev.SMIRKS)
				fmt.Fprintf(w, "Category:  %s\n", rev.Category)
				fmt.Fprintf(w, "Recorded:  %s\n", rev.RecordedAt.Format(time.RFC3339))
				return nil
			}
			list, err := envs.Revisions(ctx, args[0])
			if err != nil {
				return err
			}
			if cc.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]string, 0, len(list.Items))
			for _, r := range list.Items {
				rows = append(rows, []string{strconv.FormatInt(r.Version, 10), r.Operation, r.Category, r.SMIRKS, r.RecordedAt.Format(time.RFC3339)})
			}
			renderTable(cmd.OutOrStdout(), []string{"VERSION", "OPERATION", "CATEGORY", "SMIRKS", "RECORDED"}, rows)
			return nil
		}),
	}
}

func newEnvSearchCmd() *cobra.Command {
	var req envtypes.SearchRequest
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find stored environments by category, decorator or SMIRKS text",
		Args:  cobra.NoArgs,
		RunE: envRun(func(cmd *cobra.Command, cc *CLIContext, envs *client.EnvironmentsClient, args []string) error {
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()
			list, err := envs.Search(ctx, req)
			if err != nil {
				return err
			}
			if cc.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			rows := make([][]string, 0, len(list.Items))
			for _, r := range list.Items {
				rows = append(rows, []string{r.ID, r.Category, strconv.FormatInt(r.Version, 10), r.SMIRKS})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "CATEGORY", "VERSION", "SMIRKS"}, rows)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d\n", len(list.Items), list.Total)
			return nil
		}),
	}
	cmd.Flags().StringVar(&req.Category, "category", "", "category name, e.g. Angle")
	cmd.Flags().StringArrayVar(&req.Decorators, "decorator", nil, "decorator token that must occur; repeatable")
	cmd.Flags().StringVar(&req.Text, "text", "", "substring of the SMIRKS")
	cmd.Flags().IntVar(&req.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&req.PageSize, "page-size", 0, "items per page; 0 uses the server default")
	return cmd
}

func printRecord(cmd *cobra.Command, cc *CLIContext, rec *envtypes.EnvironmentRecord) error {
	if cc.OutputFormat == OutputJSON {
		return printJSON(cmd.OutOrStdout(), rec)
	}
	writeRecord(cmd.OutOrStdout(), rec)
	return nil
}

func writeRecord(w io.Writer, rec *envtypes.EnvironmentRecord) {
	fmt.Fprintf(w, "ID:        %s\n", rec.ID)
	fmt.Fprintf(w, "SMIRKS:    %s\n", rec.SMIRKS)
	fmt.Fprintf(w, "Category:  %s\n", rec.Category)
	fmt.Fprintf(w, "Version:   %d\n", rec.Version)
}

//Personal.AI order the ending
