// Package shell runs the interactive query loop shared by the search
// binaries.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/parser"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/ranker"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

const prompt = "enter query:"

// SearchFunc answers one query given its normalised words.
type SearchFunc func(ctx context.Context, words []string) ([]ranker.QueryResult, error)

// Run prompts on out, reads queries from in until end of input, and prints
// each result as "  name (rank)". A query that fails is reported on out and
// the loop continues, unless the failure is ctx ending.
func Run(ctx context.Context, in io.Reader, out io.Writer, search SearchFunc) error {
	scanner := bufio.NewScanner(in)
	for {
		if _, err := fmt.Fprintln(out, prompt); err != nil {
			return err
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		plan := parser.Parse(scanner.Text())
		if plan.Empty() {
			continue
		}
		results, err := search(ctx, plan.Terms)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if errors.Is(err, apperrors.ErrInvalidArgument) {
				fmt.Fprintf(out, "  invalid query: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "  search failed: %v\n", err)
			continue
		}
		for _, r := range results {
			if _, err := fmt.Fprintf(out, "  %s (%d)\n", r.DocumentName, r.Rank); err != nil {
				return err
			}
		}
	}
}
