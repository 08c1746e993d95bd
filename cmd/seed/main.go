// Command seed populates a development database with demo outlets, sales
// representatives and assignments.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jordanlanch/fieldsales/pkg/container"
	"github.com/jordanlanch/fieldsales/pkg/seed"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := seed.DefaultConfig()
	migrate := true
	flushCache := true

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Populate the database with demo data",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, migrate, flushCache)
		},
	}

	f := cmd.Flags()
	f.IntVar(&cfg.Regions, "regions", cfg.Regions, "Number of regions")
	f.IntVar(&cfg.AreasPerRegion, "areas-per-region", cfg.AreasPerRegion, "Areas created under each region")
	f.IntVar(&cfg.TerritoriesPerArea, "territories-per-area", cfg.TerritoriesPerArea, "Territories created under each area")
	f.IntVar(&cfg.Distributors, "distributors", cfg.Distributors, "Number of distributors")
	f.IntVar(&cfg.Outlets, "outlets", cfg.Outlets, "Number of outlets")
	f.IntVar(&cfg.SalesReps, "sales-reps", cfg.SalesReps, "Number of sales representatives")
	f.IntVar(&cfg.OutletsPerRep, "outlets-per-rep", cfg.OutletsPerRep, "Outlets assigned to each representative")
	f.StringVar(&cfg.AdminUsername, "admin-username", cfg.AdminUsername, "Username of the admin account")
	f.StringVar(&cfg.AdminPassword, "admin-password", cfg.AdminPassword, "Password of the admin account")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	f.BoolVar(&migrate, "migrate", migrate, "Create missing tables before seeding")
	f.BoolVar(&flushCache, "flush-cache", flushCache, "Drop every cached entry once seeding finishes")

	return cmd
}

func run(ctx context.Context, cfg seed.Config, migrate, flushCache bool) error {
	appCfg, err := container.LoadConfig(ctx)
	if err != nil {
		return err
	}
	appCfg.DBAutoMigrate = migrate

	app, err := container.New(appCfg, prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Close()

	log.Printf("🌱 Seeding %d outlets for %d sales reps", cfg.Outlets, cfg.SalesReps)

	sum, err := seed.New(app.References, app.SalesReps, app.Outlets, app.Assignments, app.Logger, cfg).Run(ctx)
	if err != nil {
		return err
	}

	log.Printf("✅ Created %d regions, %d areas, %d territories, %d distributors",
		sum.Regions, sum.Areas, sum.Territories, sum.Distributors)
	log.Printf("✅ Created %d outlets, %d sales reps, %d assignments",
		sum.Outlets, sum.SalesReps, sum.Assignments)

	// A reseeded database reuses ids, so entries cached against the previous
	// one would point at the wrong rows.
	if flushCache {
		app.Cache.Flush(ctx)
		log.Printf("🧹 Cache flushed")
	}
	return nil
}
