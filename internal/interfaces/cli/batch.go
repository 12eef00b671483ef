package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
	envtypes "github.com/turtacn/chemenv/pkg/types/environment"
)

// Batch defaults.
const (
	DefaultBatchChunkSize = 100
	DefaultBatchWorkers   = 4
)

type batchOptions struct {
	file        string
	chunkSize   int
	workers     int
	failOnError bool
}

// NewBatchCmd creates the batch command. Patterns are read one per line;
// blank lines and lines starting with '#' are skipped.
func NewBatchCmd() *cobra.Command {
	opts := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every pattern of a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "pattern file, one per line; - reads stdin (required)")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", DefaultBatchChunkSize, "patterns per batch request")
	cmd.Flags().IntVar(&opts.workers, "workers", DefaultBatchWorkers, "batch requests in flight")
	cmd.Flags().BoolVar(&opts.failOnError, "fail-on-error", false, "exit non-zero when any pattern fails")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runBatch(cmd *cobra.Command, opts *batchOptions) error {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if opts.chunkSize < 1 {
		return errors.InvalidParam("chunk-size must be >= 1").WithDetail(strconv.Itoa(opts.chunkSize))
	}
	if opts.workers < 1 {
		return errors.InvalidParam("workers must be >= 1").WithDetail(strconv.Itoa(opts.workers))
	}

	patterns, err := readPatterns(cmd, opts.file)
	if err != nil {
		return err
	}
	if len(patterns) == 0 {
		return errors.InvalidParam("no patterns found").WithDetail(opts.file)
	}

	ctx, cancel := cc.commandContext(cmd)
	defer cancel()

	chunks := (len(patterns) + opts.chunkSize - 1) / opts.chunkSize
	parts := make([]*envtypes.BatchAnalyzeResponse, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers)
	for i := 0; i < chunks; i++ {
		i := i
		lo := i * opts.chunkSize
		hi := lo + opts.chunkSize
		if hi > len(patterns) {
			hi = len(patterns)
		}
		g.Go(func() error {
			res, err := cc.Backend.BatchAnalyze(gctx, patterns[lo:hi])
			if err != nil {
				return err
			}
			parts[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	merged := mergeBatches(parts, opts.chunkSize)
	cc.Logger.Info("Batch analyzed",
		logging.Int("patterns", len(patterns)),
		logging.Int("chunks", chunks),
		logging.Int("failed", merged.Failed))

	if cc.OutputFormat == OutputJSON {
		if err := printJSON(cmd.OutOrStdout(), merged); err != nil {
			return err
		}
	} else {
		printBatch(cmd.OutOrStdout(), merged)
	}

	if opts.failOnError && merged.Failed > 0 {
		return errors.New(errors.ErrCodeValidation, fmt.Sprintf("%d of %d patterns failed", merged.Failed, len(patterns)))
	}
	return nil
}

// mergeBatches concatenates chunk results and renumbers items by their
// position in the whole input.
func mergeBatches(parts []*envtypes.BatchAnalyzeResponse, chunkSize int) *envtypes.BatchAnalyzeResponse {
	out := &envtypes.BatchAnalyzeResponse{}
	for i, p := range parts {
		if p == nil {
			continue
		}
		for _, item := range p.Items {
			item.Index += i * chunkSize
			out.Items = append(out.Items, item)
		}
		out.Succeeded += p.Succeeded
		out.Failed += p.Failed
	}
	return out
}

func readPatterns(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to open pattern file").WithDetail(path)
		}
		defer f.Close()
		r = f
	}

	var patterns []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read pattern file").WithDetail(path)
	}
	return patterns, nil
}

func printBatch(w io.Writer, res *envtypes.BatchAnalyzeResponse) {
	rows := make([][]string, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Error != nil {
			rows = append(rows, []string{strconv.Itoa(item.Index), color.RedString("FAIL"), item.Error.Code, item.Pattern})
			continue
		}
		rows = append(rows, []string{strconv.Itoa(item.Index), color.GreenString("OK"), item.Result.Category, item.Result.SMIRKS})
	}
	renderTable(w, []string{"#", "STATUS", "CATEGORY/CODE", "SMIRKS/PATTERN"}, rows)
	fmt.Fprintf(w, "\n%d succeeded, %d failed\n", res.Succeeded, res.Failed)
}

//Personal.AI order the ending
