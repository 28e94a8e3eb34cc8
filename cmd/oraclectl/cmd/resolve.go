package cmd

import (
	"fmt"

	"distance-oracle/internal/domain"

	"github.com/spf13/cobra"
)

var (
	fromPoint string
	toPoint   string
	rate      float64
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve distance, transport time and transport cost for one pair",
	Long: `Resolve one directional pair. Points are "x,y" (longitude,latitude).
A cached value is served when present; otherwise the routing provider is
queried once and the result cached.`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&fromPoint, "from", "", "origin as x,y")
	resolveCmd.Flags().StringVar(&toPoint, "to", "", "destination as x,y")
	resolveCmd.Flags().Float64Var(&rate, "rate", 0, "vehicle cost per distance unit (0 for none)")
	_ = resolveCmd.MarkFlagRequired("from")
	_ = resolveCmd.MarkFlagRequired("to")
}

func runResolve(cmd *cobra.Command, _ []string) error {
	from, err := domain.ParseCoordinates(fromPoint)
	if err != nil {
		return err
	}
	to, err := domain.ParseCoordinates(toPoint)
	if err != nil {
		return err
	}
	if rate < 0 {
		return fmt.Errorf("rate must not be negative, got %v", rate)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	src := domain.Location{ID: "from", Coordinates: &from}
	dst := domain.Location{ID: "to", Coordinates: &to}

	var vehicle *domain.Vehicle
	if rate > 0 {
		vehicle = domain.NewVehicle("cli", rate)
	}

	costs, err := a.Oracle.Costs(ctx, src, dst, vehicle)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "distance:       %g\n", costs.Distance)
	fmt.Fprintf(out, "transport time: %g\n", costs.TransportTime)
	fmt.Fprintf(out, "transport cost: %g\n", costs.TransportCost)
	fmt.Fprintf(out, "provider calls: %d\n", a.Oracle.Misses())

	return nil
}
