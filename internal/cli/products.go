package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Inventario/internal/catalog"
	"Inventario/pkg/kit"
)

type productFlags struct {
	name     string
	category string
	quantity string
	price    string
}

func (p *productFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.name, "name", "", "product name")
	cmd.Flags().StringVar(&p.category, "category", "", "product category")
	cmd.Flags().StringVar(&p.quantity, "quantity", "", "units in stock")
	cmd.Flags().StringVar(&p.price, "price", "", "unit price")
}

// draft builds a Draft from the flags, taking unset flags from base.
func (p *productFlags) draft(cmd *cobra.Command, base catalog.Product) catalog.Draft {
	d := catalog.Draft{
		Name:     base.Name,
		Category: base.Category,
		Quantity: base.Quantity,
		Price:    base.Price,
	}
	if cmd.Flags().Changed("name") {
		d.Name = p.name
	}
	if cmd.Flags().Changed("category") {
		d.Category = p.category
	}
	if cmd.Flags().Changed("quantity") {
		d.Quantity = p.quantity
	}
	if cmd.Flags().Changed("price") {
		d.Price = p.price
	}
	return d
}

func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List and change products",
	}

	cmd.AddCommand(newProductsListCommand(rootOpts))
	cmd.AddCommand(newProductsAddCommand(rootOpts))
	cmd.AddCommand(newProductsUpdateCommand(rootOpts))
	cmd.AddCommand(newProductsDeleteCommand(rootOpts))
	cmd.AddCommand(newProductsAdjustCommand(rootOpts))
	cmd.AddCommand(newProductsExportCommand(rootOpts))

	return cmd
}

func newProductsListCommand(rootOpts *RootOptions) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products, optionally filtered by a search term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			products := a.Catalog.Search(cmd.Context(), search)
			return f.Emit(products, func(w io.Writer) error {
				return writeProducts(w, products)
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "match name, category or id")
	return cmd
}

func newProductsAddCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &productFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			d := catalog.Draft{Name: flags.name, Category: flags.category, Quantity: flags.quantity, Price: flags.price}
			p, err := a.Catalog.Create(cmd.Context(), d)
			if err != nil {
				return report(f, err)
			}
			return emitProduct(f, "Added", p)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newProductsUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &productFlags{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a product's fields; omitted flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(f, args[0])
			if err != nil {
				return err
			}

			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			current, ok := a.Catalog.Find(cmd.Context(), id)
			if !ok {
				return report(f, catalog.ErrNotFound)
			}

			p, err := a.Catalog.Update(cmd.Context(), id, flags.draft(cmd, current))
			if err != nil {
				return report(f, err)
			}
			return emitProduct(f, "Updated", p)
		},
	}
	flags.bind(cmd)
	return cmd
}

func newProductsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(f, args[0])
			if err != nil {
				return err
			}

			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Catalog.Delete(cmd.Context(), id); err != nil {
				return report(f, err)
			}
			return f.Emit(map[string]int{"id": id}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted product %d\n", id)
				return err
			})
		},
	}
}

func newProductsAdjustCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adjust <id> <delta>",
		Short: "Add delta units to a product's stock (negative to remove)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(f, args[0])
			if err != nil {
				return err
			}
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return report(f, kit.NewValidationError("delta", fmt.Sprintf("delta %q is not a whole number", args[1])))
			}

			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			p, err := a.Catalog.AdjustQuantity(cmd.Context(), id, delta)
			if err != nil {
				return report(f, err)
			}
			return emitProduct(f, "Adjusted", p)
		},
	}
	// Lets "adjust 3 -5" pass the negative delta as an argument.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newProductsExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the catalog as CSV to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := catalog.ExportCSV(cmd.OutOrStdout(), a.Catalog.List(cmd.Context())); err != nil {
				return report(f, err)
			}
			return nil
		},
	}
}

func parseID(f *OutputFormatter, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		_ = f.Error(CodeInvalidInput, fmt.Sprintf("id %q is not a number", s))
		return 0, &ExitError{Code: ExitFailure, Message: "invalid id", Err: err}
	}
	return id, nil
}

func emitProduct(f *OutputFormatter, verb string, p catalog.Product) error {
	return f.Emit(p, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s product %d: %s (%s) qty=%d price=%s\n",
			verb, p.ID, p.Name, p.Category, p.Quantity, p.Price.StringFixed(2))
		return err
	})
}

func writeProducts(w io.Writer, products []catalog.Product) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tQUANTITY\tPRICE")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Category, p.Quantity, p.Price.StringFixed(2))
	}
	return tw.Flush()
}
