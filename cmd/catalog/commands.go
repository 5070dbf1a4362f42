package main

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"doccatalog/internal/catalog"
	"doccatalog/internal/model"
	"doccatalog/internal/service"
)

func (c *cli) addCmd() *cobra.Command {
	var (
		docType, tags, category, description, url string
		size                                      int64
		favorite                                  bool
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a document record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			if docType == "" {
				docType = category
			}
			if size <= 0 {
				size = catalog.PlaceholderSize(nil)
			}

			doc, err := svc.Add(cmd.Context(), c.owner, model.DocumentInput{
				Name:        strings.Join(args, " "),
				Type:        docType,
				Size:        size,
				Tags:        catalog.ParseTags(tags),
				Category:    category,
				Description: optional(description),
				URL:         optional(url),
				IsFavorite:  favorite,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s  %s\n", shortID(doc.ID), doc.Name)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&docType, "type", "", "document type (defaults to the category)")
	f.Int64Var(&size, "size", 0, "size in bytes (a placeholder is used when omitted)")
	f.StringVar(&tags, "tags", "", "comma separated tags")
	f.StringVar(&category, "category", "document", "category id")
	f.StringVar(&description, "description", "", "free text description")
	f.StringVar(&url, "url", "", "link to the document")
	f.BoolVar(&favorite, "favorite", false, "mark as favorite")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var name, tags, category, description string

	cmd := &cobra.Command{
		Use:   "import-file [path]",
		Short: "Add a document record from a local file's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", path)
			}
			contentType, err := detectContentType(path)
			if err != nil {
				return err
			}

			svc, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			doc, err := svc.AddFromUpload(cmd.Context(), c.owner, service.UploadInput{
				Filename:    filepath.Base(path),
				ContentType: contentType,
				Size:        info.Size(),
				Name:        name,
				Description: description,
				Tags:        tags,
				Category:    category,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s  %s (%s, %s)\n",
				shortID(doc.ID), doc.Name, doc.Category, catalog.FormatSize(doc.Size))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "override the file name")
	f.StringVar(&tags, "tags", "", "comma separated tags")
	f.StringVar(&category, "category", "", "override the detected category")
	f.StringVar(&description, "description", "", "free text description")
	return cmd
}

// detectContentType prefers the extension and falls back to sniffing the
// first 512 bytes.
func detectContentType(path string) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return http.DetectContentType(buf[:n]), nil
}

func (c *cli) listCmd() *cobra.Command {
	var search, category, sortField, order string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents matching the search and category filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			var upd service.ViewUpdate
			f := cmd.Flags()
			if f.Changed("search") {
				upd.SearchTerm = &search
			}
			if f.Changed("category") && category != "all" {
				upd.SelectedCategory = &category
			}
			if f.Changed("sort") {
				sf := model.SortField(sortField)
				upd.SortField = &sf
			}
			if f.Changed("order") {
				so := model.SortOrder(strings.ToLower(order))
				upd.SortOrder = &so
			}

			res, err := svc.List(cmd.Context(), c.owner, upd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(res.Items) == 0 {
				fmt.Fprintln(out, "No documents match. Use 'catalog add' to create one.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\t\tNAME\tCATEGORY\tSIZE\tMODIFIED")
			for _, d := range res.Items {
				star := ""
				if d.IsFavorite {
					star = "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					shortID(d.ID), star, d.Name, d.Category,
					catalog.FormatSize(d.Size), d.ModifiedAt.Local().Format(time.DateOnly))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d of %d documents, %d favorites\n",
				res.Counts.Filtered, res.Counts.Total, res.Counts.Favorites)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&search, "search", "s", "", "case-insensitive search over name, description and tags")
	f.StringVarP(&category, "category", "c", "", "category id, or all")
	f.StringVar(&sortField, "sort", string(model.SortByModifiedAt), "sort field: name, createdAt, modifiedAt, size or type")
	f.StringVar(&order, "order", string(model.Descending), "sort order: asc or desc")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show document details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			id, err := c.resolveID(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			doc, err := svc.Get(cmd.Context(), c.owner, id)
			if err != nil {
				return err
			}
			describe(cmd.OutOrStdout(), doc)
			return nil
		},
	}
}

func (c *cli) updateCmd() *cobra.Command {
	var (
		name, docType, tags, category, description, url string
		size                                            int64
		favorite                                        bool
	)

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Change fields of a document; only the given flags are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.DocumentPatch
			f := cmd.Flags()
			if f.Changed("name") {
				patch.Name = &name
			}
			if f.Changed("type") {
				patch.Type = &docType
			}
			if f.Changed("size") {
				patch.Size = &size
			}
			if f.Changed("tags") {
				parsed := catalog.ParseTags(tags)
				patch.Tags = &parsed
			}
			if f.Changed("category") {
				patch.Category = &category
			}
			if f.Changed("description") {
				patch.Description = &description
			}
			if f.Changed("url") {
				patch.URL = &url
			}
			if f.Changed("favorite") {
				patch.IsFavorite = &favorite
			}

			svc, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			id, err := c.resolveID(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			doc, err := svc.Update(cmd.Context(), c.owner, id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s  %s\n", shortID(doc.ID), doc.Name)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "new name")
	f.StringVar(&docType, "type", "", "new type")
	f.Int64Var(&size, "size", 0, "new size in bytes")
	f.StringVar(&tags, "tags", "", "replace tags (comma separated)")
	f.StringVar(&category, "category", "", "new category id")
	f.StringVar(&description, "description", "", "new description")
	f.StringVar(&url, "url", "", "new link")
	f.BoolVar(&favorite, "favorite", false, "set the favorite flag")
	return cmd
}

func (c *cli) favCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fav [id]",
		Short: "Toggle the favorite flag of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			id, err := c.resolveID(cmd.Context(), svc, args[0])
			if err != nil {
				return err
			}
			doc, err := svc.ToggleFavorite(cmd.Context(), c.owner, id)
			if err != nil {
				return err
			}

			state := "removed from favorites"
			if doc.IsFavorite {
				state = "added to favorites"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %s\n", shortID(doc.ID), doc.Name, state)
			return nil
		},
	}
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Remove a document record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			out := cmd.OutOrStdout()
			id, err := c.resolveID(cmd.Context(), svc, args[0])
			if errors.Is(err, service.ErrNotFound) {
				fmt.Fprintf(out, "No document matches %s\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), c.owner, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %s\n", shortID(id))
			return nil
		},
	}
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show categories with document counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			counts, err := svc.Counts(cmd.Context(), c.owner)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tICON\tCOLOR\tCOUNT")
			for _, cc := range counts.Categories {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
					cc.ID, cc.Name, catalog.IconFor(cc.ID), catalog.ColorFor(cc.ID), cc.Count)
			}
			fmt.Fprintf(tw, "all\tAll documents\t\t\t%d\n", counts.Total)
			return tw.Flush()
		},
	}
}
