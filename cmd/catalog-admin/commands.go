package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-catalog/pkg/catalog"
)

func newCategoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := a.catalog.Service.CreateCategory(cmd.Context(), catalog.CreateCategoryRequest{
				Name:        args[0],
				Description: description,
				ActorID:     a.actor,
			})
			if err != nil {
				return err
			}
			return a.print(cmd, category, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "%s\t%s\n", category.ID, category.Name)
			})
		},
	}
	create.Flags().StringVar(&description, "description", "", "category description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := a.catalog.Service.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, categories, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
				for _, c := range categories {
					fmt.Fprintf(w, "%s\t%s\t%s\n", c.ID, c.Name, c.Description)
				}
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category that no active product references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.catalog.Service.DeleteCategory(cmd.Context(), catalog.DeleteCategoryRequest{ID: args[0], ActorID: a.actor})
		},
	}

	cmd.AddCommand(create, list, del)
	return cmd
}

func newProductCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage products",
	}

	var (
		name       string
		price      float64
		quantity   int
		categoryID string
		imagePath  string
	)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a product, optionally uploading an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := catalog.CreateProductRequest{
				Name:       name,
				Price:      price,
				Quantity:   quantity,
				CategoryID: categoryID,
				ActorID:    a.actor,
			}
			var (
				product *catalog.Product
				err     error
			)
			if imagePath != "" {
				upload, readErr := readImage(imagePath)
				if readErr != nil {
					return readErr
				}
				product, err = a.catalog.Workflow.CreateProductWithImage(cmd.Context(), req, upload)
			} else {
				product, err = a.catalog.Service.CreateProduct(cmd.Context(), req)
			}
			if err != nil {
				return err
			}
			return a.printProducts(cmd, []*catalog.Product{product})
		},
	}
	create.Flags().StringVar(&name, "name", "", "product name")
	create.Flags().Float64Var(&price, "price", 0, "unit price")
	create.Flags().IntVar(&quantity, "quantity", 0, "stock quantity")
	create.Flags().StringVar(&categoryID, "category", "", "category id")
	create.Flags().StringVar(&imagePath, "image", "", "path of an image to upload")
	_ = create.MarkFlagRequired("name")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch catalog.ProductPatch
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("price") {
				patch.Price = &price
			}
			if flags.Changed("quantity") {
				patch.Quantity = &quantity
			}
			if flags.Changed("category") {
				patch.CategoryID = &categoryID
			}
			req := catalog.UpdateProductRequest{ID: args[0], Patch: patch, ActorID: a.actor}

			var (
				product *catalog.Product
				err     error
			)
			if imagePath != "" {
				upload, readErr := readImage(imagePath)
				if readErr != nil {
					return readErr
				}
				product, err = a.catalog.Workflow.UpdateProductWithImage(cmd.Context(), req, upload)
			} else {
				product, err = a.catalog.Service.UpdateProduct(cmd.Context(), req)
			}
			if err != nil {
				return err
			}
			return a.printProducts(cmd, []*catalog.Product{product})
		},
	}
	update.Flags().StringVar(&name, "name", "", "product name")
	update.Flags().Float64Var(&price, "price", 0, "unit price")
	update.Flags().IntVar(&quantity, "quantity", 0, "stock quantity")
	update.Flags().StringVar(&categoryID, "category", "", "category id (empty clears it)")
	update.Flags().StringVar(&imagePath, "image", "", "path of a replacement image")

	var purge bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Soft-delete a product and remove its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := catalog.DeleteProductRequest{ID: args[0], ActorID: a.actor}
			var err error
			if purge {
				_, err = a.catalog.Workflow.PurgeProductWithImage(cmd.Context(), req)
			} else {
				_, err = a.catalog.Workflow.DeleteProductWithImage(cmd.Context(), req)
			}
			return err
		},
	}
	del.Flags().BoolVar(&purge, "purge", false, "remove the record permanently")

	var (
		filters  catalog.ProductListFilters
		minPrice float64
		maxPrice float64
		sortBy   string
		order    string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List active products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("min-price") {
				filters.MinPrice = &minPrice
			}
			if cmd.Flags().Changed("max-price") {
				filters.MaxPrice = &maxPrice
			}
			filters.SortBy = catalog.SortField(sortBy)
			filters.SortOrder = catalog.SortOrder(order)

			products, err := a.catalog.Service.ListProducts(cmd.Context(), filters)
			if err != nil {
				return err
			}
			return a.printProducts(cmd, products)
		},
	}
	list.Flags().StringVar(&filters.CategoryID, "category", "", "only products in this category")
	list.Flags().StringVar(&filters.Search, "search", "", "case-insensitive name search")
	list.Flags().Float64Var(&minPrice, "min-price", 0, "minimum price")
	list.Flags().Float64Var(&maxPrice, "max-price", 0, "maximum price")
	list.Flags().StringVar(&sortBy, "sort", "name", "sort by name or price")
	list.Flags().StringVar(&order, "order", "asc", "price sort order (asc or desc)")

	cmd.AddCommand(create, update, del, list)
	return cmd
}

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var (
		password string
		role     string
	)
	register := &cobra.Command{
		Use:   "register <username>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("CATALOG_USER_PASSWORD")
			}
			user, err := a.catalog.Service.RegisterUser(cmd.Context(), catalog.RegisterUserRequest{
				Username: args[0],
				Password: password,
				Role:     catalog.Role(role),
				ActorID:  a.actor,
			})
			if err != nil {
				return err
			}
			return a.print(cmd, user, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", user.ID, user.Username, user.Role)
			})
		},
	}
	register.Flags().StringVar(&password, "password", "", "password (or CATALOG_USER_PASSWORD)")
	register.Flags().StringVar(&role, "role", string(catalog.RoleStaff), "admin or staff")

	setRole := &cobra.Command{
		Use:   "set-role <user-id> <role>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.catalog.Service.ChangeUserRole(cmd.Context(), catalog.ChangeUserRoleRequest{
				UserID:  args[0],
				Role:    catalog.Role(args[1]),
				ActorID: a.actor,
			})
			if err != nil {
				return err
			}
			return a.print(cmd, user, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", user.ID, user.Username, user.Role)
			})
		},
	}

	cmd.AddCommand(register, setRole)
	return cmd
}

func newHistoryCommand(a *app) *cobra.Command {
	var byActor bool
	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show audit entries for a subject, or for an actor with --by-actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				entries []*catalog.LogEntry
				err     error
			)
			if byActor {
				entries, err = a.catalog.Service.ActorHistory(cmd.Context(), args[0])
			} else {
				entries, err = a.catalog.Service.History(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return a.print(cmd, entries, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "TIME\tACTION\tENTITY\tSUBJECT\tACTOR")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02T15:04:05Z07:00"), e.Action, e.Entity, e.SubjectID, e.ActorID)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&byActor, "by-actor", false, "treat the id as an actor id")
	return cmd
}

func (a *app) printProducts(cmd *cobra.Command, products []*catalog.Product) error {
	return a.print(cmd, products, func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY\tSTOCK\tCATEGORY\tIMAGE")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%s\t%s\t%s\n",
				p.ID, p.Name, p.Price, p.Quantity, p.InventoryStatus(), p.CategoryID, p.Image.URL)
		}
	})
}

// print writes v as indented JSON with --json, otherwise through table.
func (a *app) print(cmd *cobra.Command, v any, table func(w *tabwriter.Writer)) error {
	out := cmd.OutOrStdout()
	if a.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	table(w)
	return w.Flush()
}

// readImage loads an image file and sniffs its content type.
func readImage(path string) (catalog.ImageUpload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.ImageUpload{}, fmt.Errorf("failed to read image: %w", err)
	}
	return catalog.ImageUpload{
		Data:        data,
		ContentType: http.DetectContentType(data),
		FileName:    filepath.Base(path),
	}, nil
}
