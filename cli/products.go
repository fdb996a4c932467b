// ABOUTME: Product library CLI commands
// ABOUTME: Manages the catalog of insurance products used to resolve policies
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/polsync/models"
	"github.com/harperreed/polsync/state"
)

// AddProductCommand adds a catalog entry. Names are unique.
func AddProductCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-product", flag.ExitOnError)
	name := fs.String("name", "", "Product name (required, unique)")
	provider := fs.String("provider", "", "Insurance provider")
	ptype := fs.String("type", models.TypeLife, "Insurance type")
	tags := fs.String("tags", "", "Comma-separated default tags")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	product := models.Product{
		Name:        *name,
		Provider:    *provider,
		Type:        *ptype,
		DefaultTags: splitTags(*tags),
	}

	var addErr error
	err := app.Orch.Apply(func(c state.Collections) state.Collections {
		next, err := state.AddProduct(c, product)
		if err != nil {
			addErr = err
			return c
		}
		return next
	})
	if err != nil {
		return fmt.Errorf("failed to add product: %w", err)
	}
	if addErr != nil {
		return addErr
	}

	fmt.Printf("✓ Product added: %s (%s)\n", product.Name, product.Type)
	return nil
}

// ListProductsCommand prints the product library.
func ListProductsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-products", flag.ExitOnError)
	_ = fs.Parse(args)

	products := app.Orch.Collections().Products

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROVIDER\tTYPE\tDEFAULT TAGS")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Provider, p.Type, strings.Join(p.DefaultTags, ", "))
	}
	w.Flush()

	fmt.Printf("\n%d product(s)\n", len(products))
	return nil
}

// DeleteProductCommand removes a catalog entry by name.
func DeleteProductCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("delete-product", flag.ExitOnError)
	name := fs.String("name", "", "Product name (required)")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	err := app.Orch.Apply(func(c state.Collections) state.Collections {
		return state.DeleteProduct(c, *name)
	})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	fmt.Println("✓ Product deleted")
	return nil
}
