package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"doccatalog/internal/catalog"
	"doccatalog/internal/config"
	"doccatalog/internal/model"
	"doccatalog/internal/repository/backend"
	"doccatalog/internal/service"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the persistent flags shared by every subcommand.
type cli struct {
	dir        string
	backend    string
	sqlitePath string
	owner      string
	codec      string
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	defaults := config.Load()
	c := &cli{stderr: stderr}

	rootCmd := &cobra.Command{
		Use:          "catalog",
		Short:        "Manage a document catalog from the terminal",
		SilenceUsage: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.dir, "dir", defaults.Persistence.Dir, "catalog directory (file backend)")
	pf.StringVar(&c.backend, "backend", config.BackendFile, "persistence backend: file or sqlite")
	pf.StringVar(&c.sqlitePath, "sqlite", "", "sqlite database path (default <dir>/catalog.db)")
	pf.StringVar(&c.owner, "owner", defaults.Auth.DefaultOwner, "catalog owner")
	pf.StringVar(&c.codec, "codec", defaults.Persistence.Codec, "snapshot codec: json or msgpack")

	rootCmd.AddCommand(c.addCmd())
	rootCmd.AddCommand(c.importCmd())
	rootCmd.AddCommand(c.listCmd())
	rootCmd.AddCommand(c.showCmd())
	rootCmd.AddCommand(c.updateCmd())
	rootCmd.AddCommand(c.favCmd())
	rootCmd.AddCommand(c.rmCmd())
	rootCmd.AddCommand(c.categoriesCmd())

	return rootCmd
}

// open builds a catalog service over the selected backend. The returned
// close func must be called once the command is done.
func (c *cli) open(ctx context.Context) (service.CatalogService, func(), error) {
	switch c.backend {
	case config.BackendFile, config.BackendSQLite:
	default:
		return nil, nil, fmt.Errorf("backend %q is not available from the command line", c.backend)
	}

	sqlitePath := c.sqlitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(c.dir, "catalog.db")
	}
	cfg := &config.AppConfig{Persistence: config.PersistenceConfig{
		Backend:    c.backend,
		Dir:        c.dir,
		Codec:      c.codec,
		SQLitePath: sqlitePath,
	}}

	b, err := backend.Open(ctx, cfg, time.Local)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc := service.NewCatalogService(b.Repo, service.Options{
		Backend:     b.Name,
		SaveTimeout: 5 * time.Second,
		Logger:      logger,
	})
	return svc, func() { _ = b.Close() }, nil
}

// resolveID accepts a full id or an unambiguous prefix of one.
func (c *cli) resolveID(ctx context.Context, svc service.CatalogService, ref string) (string, error) {
	store, err := svc.Session(ctx, c.owner)
	if err != nil {
		return "", err
	}

	var match string
	for _, d := range store.Documents() {
		if d.ID == ref {
			return d.ID, nil
		}
		if strings.HasPrefix(d.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", ref)
			}
			match = d.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("document %q: %w", ref, service.ErrNotFound)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func describe(w io.Writer, d *model.Document) {
	fmt.Fprintf(w, "ID:          %s\n", d.ID)
	fmt.Fprintf(w, "Name:        %s\n", d.Name)
	fmt.Fprintf(w, "Type:        %s\n", d.Type)
	fmt.Fprintf(w, "Category:    %s\n", d.Category)
	fmt.Fprintf(w, "Size:        %s\n", catalog.FormatSize(d.Size))
	fmt.Fprintf(w, "Tags:        %s\n", strings.Join(d.Tags, ", "))
	if d.Description != nil {
		fmt.Fprintf(w, "Description: %s\n", *d.Description)
	}
	if d.URL != nil {
		fmt.Fprintf(w, "URL:         %s\n", *d.URL)
	}
	fmt.Fprintf(w, "Favorite:    %t\n", d.IsFavorite)
	fmt.Fprintf(w, "Created:     %s\n", d.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Modified:    %s\n", d.ModifiedAt.Local().Format(time.DateTime))
}
