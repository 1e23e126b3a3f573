// portalctl is the operator CLI: seed the first admin account, check the
// store connection.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eternals-studio/portal/internal/auth"
	"github.com/eternals-studio/portal/internal/config"
	"github.com/eternals-studio/portal/internal/jwt"
	"github.com/eternals-studio/portal/internal/observability/logger"
	"github.com/eternals-studio/portal/internal/store/core"
	storemem "github.com/eternals-studio/portal/internal/store/memory"
	storemongo "github.com/eternals-studio/portal/internal/store/mongo"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Operator tooling for the portal backend",
	}
	root.PersistentFlags().String("config", os.Getenv("CONFIG_PATH"), "path to YAML config (optional)")

	root.AddCommand(seedAdminCmd(), pingCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadDeps(cmd *cobra.Command) (*config.Config, core.Repository, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: "warn", ServiceName: "portalctl"})

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	var store core.Repository
	if cfg.Storage.Driver == "mongo" {
		store, err = storemongo.New(ctx, cfg.Storage.Mongo.URL, cfg.Storage.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
	} else {
		store = storemem.New()
	}
	return cfg, store, nil
}

func seedAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the initial super_admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := loadDeps(cmd)
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}

			issuer := jwt.NewIssuer(cfg.JWT.Secret, cfg.AccessTTL())
			svc := auth.NewService(store, issuer)
			u, err := svc.CreateUser(cmd.Context(), email, password, name, core.RoleSuperAdmin, "")
			if err != nil {
				return err
			}
			fmt.Printf("created super_admin %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the backing store connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := loadDeps(cmd)
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("store unreachable: %w", err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}
