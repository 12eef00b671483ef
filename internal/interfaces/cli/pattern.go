package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	appenv "github.com/turtacn/chemenv/internal/application/environment"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/client"
	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <pattern|->",
		Short: "Parse, classify and list the atoms and bonds of a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			pattern, err := patternArg(cmd, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()

			res, err := cc.Backend.Analyze(ctx, pattern)
			if err != nil {
				cc.Logger.Debug("Analysis failed", logging.String(logging.FieldPattern, pattern), logging.Err(err))
				return err
			}
			if cc.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printAnalysis(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	var noLabels bool
	cmd := &cobra.Command{
		Use:   "render <pattern|->",
		Short: "Re-serialize a pattern, optionally without map labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			pattern, err := patternArg(cmd, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()

			labels := !noLabels
			res, err := cc.Backend.Render(ctx, envtypes.RenderRequest{Pattern: pattern, IncludeLabels: &labels})
			if err != nil {
				return err
			}
			if cc.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noLabels, "no-labels", false, "drop map labels (render SMARTS)")
	return cmd
}

// NewSelectCmd creates the select command.
func NewSelectCmd() *cobra.Command {
	var kind, descriptor string
	cmd := &cobra.Command{
		Use:   "select <pattern|->",
		Short: "Resolve one atom or bond by descriptor",
		Long: "Resolve one atom or bond. The descriptor is a map label number, one of\n" +
			"Indexed, Unindexed, Alpha or Beta, or empty for the default selection.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			pattern, err := patternArg(cmd, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()

			res, err := cc.Backend.Select(ctx, envtypes.SelectRequest{Pattern: pattern, Kind: kind, Descriptor: descriptor})
			if err != nil {
				return err
			}
			if cc.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			if res.Atom != nil {
				renderTable(cmd.OutOrStdout(), atomHeaders, atomRows([]envtypes.AtomView{*res.Atom}))
			}
			if res.Bond != nil {
				renderTable(cmd.OutOrStdout(), bondHeaders, bondRows([]envtypes.BondView{*res.Bond}))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "atom", "component kind: atom or bond")
	cmd.Flags().StringVar(&descriptor, "descriptor", "", "label number, Indexed, Unindexed, Alpha or Beta")
	return cmd
}

// NewComponentsCmd creates the components command.
func NewComponentsCmd() *cobra.Command {
	var kind, option string
	cmd := &cobra.Command{
		Use:   "components <pattern|->",
		Short: "List every atom or bond matching a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			pattern, err := patternArg(cmd, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()

			res, err := cc.Backend.Components(ctx, envtypes.ComponentsRequest{Pattern: pattern, Kind: kind, Option: option})
			if err != nil {
				return err
			}
			if cc.OutputFormat == OutputJSON {
				return printJSON(cmd.OutOrStdout(), res)
			}
			if res.Kind == "bond" {
				renderTable(cmd.OutOrStdout(), bondHeaders, bondRows(res.Bonds))
			} else {
				renderTable(cmd.OutOrStdout(), atomHeaders, atomRows(res.Atoms))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "atom", "component kind: atom or bond")
	cmd.Flags().StringVar(&option, "option", "", "Indexed, Unindexed, Alpha or Beta; empty lists all")
	return cmd
}

// ValidationResult is one line of validate output.
type ValidationResult struct {
	Pattern  string              `json:"pattern"`
	Valid    bool                `json:"valid"`
	Category string              `json:"category,omitempty"`
	Error    *common.ErrorDetail `json:"error,omitempty"`
}

// NewValidateCmd creates the validate command. It fails when any pattern is
// invalid.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pattern>...",
		Short: "Check that patterns parse and render to well-formed SMIRKS",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := cc.commandContext(cmd)
			defer cancel()

			results := make([]ValidationResult, 0, len(args))
			invalid := 0
			for _, p := range args {
				r := ValidationResult{Pattern: p}
				res, err := cc.Backend.Analyze(ctx, p)
				switch {
				case err != nil:
					r.Error = errorDetail(err)
				case !res.WellFormed:
					r.Category = res.Category
					r.Error = &common.ErrorDetail{
						Code:    string(errors.ErrCodePatternMalformedOutput),
						Message: errors.DefaultMessageForCode(errors.ErrCodePatternMalformedOutput),
						Detail:  res.SMIRKS,
					}
				default:
					r.Valid = true
					r.Category = res.Category
				}
				if !r.Valid {
					invalid++
				}
				results = append(results, r)
			}

			if cc.OutputFormat == OutputJSON {
				if err := printJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.Valid {
						fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", color.GreenString("OK  "), r.Pattern, r.Category)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s: %s\n", color.RedString("FAIL"), r.Pattern, r.Error.Code, r.Error.Message)
					}
				}
			}
			if invalid > 0 {
				return errors.New(errors.ErrCodeValidation, fmt.Sprintf("%d of %d patterns invalid", invalid, len(args)))
			}
			return nil
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// patternArg returns arg, or the first non-empty stdin line when arg is "-".
func patternArg(cmd *cobra.Command, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read pattern from stdin")
	}
	return "", errors.InvalidParam("no pattern on stdin")
}

// errorDetail extracts a code and message from local and remote failures.
func errorDetail(err error) *common.ErrorDetail {
	if apiErr, ok := client.AsAPIError(err); ok {
		return &common.ErrorDetail{Code: apiErr.Code, Message: apiErr.Message, Detail: apiErr.Detail}
	}
	return appenv.ErrorDetail(err)
}

var (
	atomHeaders = []string{"POS", "LABEL", "ROLE", "EXPRESSION", "DEGREE", "BOND ORDER"}
	bondHeaders = []string{"POS", "LABEL", "ROLE", "ATOMS", "EXPRESSION", "ORDER", "RING"}
)

func printAnalysis(w io.Writer, res *envtypes.AnalysisResult) {
	fmt.Fprintf(w, "Pattern:     %s\n", res.Pattern)
	fmt.Fprintf(w, "SMIRKS:      %s\n", res.SMIRKS)
	fmt.Fprintf(w, "SMARTS:      %s\n", res.SMARTS)
	fmt.Fprintf(w, "Category:    %s\n", color.CyanString(res.Category))
	fmt.Fprintf(w, "Well-formed: %s\n", yesNo(res.WellFormed))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Atoms")
	renderTable(w, atomHeaders, atomRows(res.Atoms))
	if len(res.Bonds) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Bonds")
		renderTable(w, bondHeaders, bondRows(res.Bonds))
	}
}

func atomRows(atoms []envtypes.AtomView) [][]string {
	rows := make([][]string, 0, len(atoms))
	for _, a := range atoms {
		rows = append(rows, []string{
			strconv.Itoa(a.Position),
			labelString(a.Label),
			a.Role,
			a.Expression,
			strconv.Itoa(a.Degree),
			formatFloat(a.BondOrder),
		})
	}
	return rows
}

func bondRows(bonds []envtypes.BondView) [][]string {
	rows := make([][]string, 0, len(bonds))
	for _, b := range bonds {
		ring := ""
		if b.RingClosure {
			ring = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(b.Position),
			labelString(b.Label),
			b.Role,
			fmt.Sprintf("%d-%d", b.Atoms[0], b.Atoms[1]),
			b.Expression,
			formatFloat(b.Order),
			ring,
		})
	}
	return rows
}

func labelString(l int) string {
	if l == 0 {
		return "-"
	}
	return strconv.Itoa(l)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

//Personal.AI order the ending
