package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"campusfin/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the forecast cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired forecasts and their adjustment records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, m, err := openManager()
		if err != nil {
			return err
		}
		defer closeManager(m)

		fc := cache.New(cache.NewGormStore(m.DB()), cfg.Forecast.CacheTTL, cfg.Forecast.ComputeTimeout)
		return purgeCache(cmd.Context(), fc, cmd.OutOrStdout())
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func purgeCache(ctx context.Context, fc *cache.ForecastCache, w io.Writer) error {
	n, err := fc.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Purged %d expired forecast(s)\n", n)
	return nil
}
