package cmd

import (
	"errors"
	"fmt"

	"distance-oracle/internal/domain"

	"github.com/spf13/cobra"
)

var (
	points      []string
	concurrency int
)

var prewarmCmd = &cobra.Command{
	Use:   "prewarm",
	Short: "Populate the cache with every ordered pair of the given points",
	Args:  cobra.NoArgs,
	RunE:  runPrewarm,
}

func init() {
	prewarmCmd.Flags().StringArrayVarP(&points, "point", "p", nil, "point as x,y (repeatable)")
	prewarmCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "maximum provider queries in flight")
}

func runPrewarm(cmd *cobra.Command, _ []string) error {
	if len(points) < 2 {
		return errors.New("at least two --point values are required")
	}

	locs := make([]domain.Location, 0, len(points))
	for i, p := range points {
		c, err := domain.ParseCoordinates(p)
		if err != nil {
			return err
		}
		locs = append(locs, domain.Location{ID: fmt.Sprintf("p%d", i), Coordinates: &c})
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	calls, err := a.Oracle.Prewarm(ctx, locs, concurrency)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "warmed %d pairs with %d provider calls\n", len(locs)*(len(locs)-1), calls)
	return nil
}
