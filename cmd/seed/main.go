package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"freshbasket/internal/auth"
	"freshbasket/internal/cache"
	"freshbasket/internal/config"
	"freshbasket/internal/db"
	"freshbasket/internal/logger"
	"freshbasket/internal/repository"
	"freshbasket/internal/service"
)

// SeedProductData is one entry of a catalog seed file.
type SeedProductData struct {
	Name     string          `json:"name"`
	Price    json.RawMessage `json:"price"`
	Category string          `json:"category"`
	Icon     string          `json:"icon"`
}

var (
	cfg    *config.Config
	log    *logger.Logger
	gormDB *gorm.DB
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the FreshBasket database",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		log = logger.New(logger.Options{ServiceName: "freshbasket-seed", Level: cfg.LogLevel, Format: cfg.LogFormat})
		if gormDB, err = db.Open(cfg); err != nil {
			return err
		}
		return db.Migrate(gormDB)
	},
}

var catalogSource string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Fill an empty catalog with the default assortment or a JSON file/URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		catalog := service.NewCatalogService(repository.NewProductRepository(gormDB), nil, 0, log)

		if catalogSource == "" {
			n, err := catalog.SeedDefaults(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d products\n", n)
			return nil
		}

		items, err := loadProducts(ctx, catalogSource)
		if err != nil {
			return err
		}
		created, skipped := 0, 0
		for _, item := range items {
			_, err := catalog.Create(ctx, service.ProductInput{
				Name:     item.Name,
				Price:    strings.Trim(string(item.Price), `"`),
				Category: item.Category,
				Icon:     item.Icon,
			})
			if err != nil {
				log.Zerolog(ctx).Warn().Err(err).Str("name", item.Name).Msg("skipping product")
				skipped++
				continue
			}
			created++
		}
		fmt.Printf("Created %d products, skipped %d\n", created, skipped)
		return nil
	},
}

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create an admin account unless the email is taken",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password := firstNonEmpty(adminEmail, cfg.AdminEmail), firstNonEmpty(adminPassword, cfg.AdminPassword)
		if email == "" || password == "" {
			return fmt.Errorf("admin email and password are required (--email/--password or %s_ADMIN_EMAIL/%s_ADMIN_PASSWORD)", config.EnvPrefix, config.EnvPrefix)
		}
		authService := service.NewAuthService(
			repository.NewUserRepository(gormDB),
			auth.NewJWTService(cfg.JWTSecret, cfg.SessionTTL),
			auth.NewTokenStore(cache.NewMemory()),
			log,
		)
		created, err := authService.EnsureAdmin(cmd.Context(), adminName, email, password)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Admin %s created\n", email)
		} else {
			fmt.Printf("Account %s already exists\n", email)
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.Reset(gormDB); err != nil {
			return err
		}
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
		fmt.Println("Tables recreated")
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogSource, "source", "", "JSON file path or http(s) URL with an array of products")
	adminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	adminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	adminCmd.Flags().StringVar(&adminName, "name", "Admin", "admin display name")

	rootCmd.AddCommand(catalogCmd, adminCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadProducts reads seed data from a local file or an http(s) URL.
func loadProducts(ctx context.Context, source string) ([]SeedProductData, error) {
	var body []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch seed data: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("seed source returned status code: %d", resp.StatusCode)
		}
		if body, err = io.ReadAll(resp.Body); err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
	} else {
		var err error
		if body, err = os.ReadFile(source); err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}

	var items []SeedProductData
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return items, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
