package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"storefront-backend/internal/domain"
)

type catalogEntry struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Category    string   `yaml:"category"`
	Stock       int      `yaml:"stock"`
	Images      []string `yaml:"images"`
	Featured    bool     `yaml:"featured"`
}

type catalog struct {
	Products []catalogEntry `yaml:"products"`
}

func loadCatalog(path string) ([]domain.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	products := make([]domain.Product, 0, len(c.Products))
	for i, e := range c.Products {
		price, err := domain.ParseMoney(e.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, e.Name, err)
		}
		p := domain.Product{
			Name:        e.Name,
			Description: e.Description,
			Price:       price,
			Category:    e.Category,
			Stock:       e.Stock,
			Images:      e.Images,
			Featured:    e.Featured,
		}
		p.Normalize()
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, e.Name, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func seedCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create catalog products through the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := loadCatalog(file)
			if err != nil {
				return err
			}
			client := opts.client()
			out := cmd.OutOrStdout()
			for i := range products {
				created, err := client.CreateProduct(cmd.Context(), &products[i])
				if err != nil {
					return fmt.Errorf("create %s: %w", products[i].Name, err)
				}
				fmt.Fprintf(out, "%s  %s  %s\n", created.ID.Hex(), created.Name, created.Price)
			}
			fmt.Fprintf(out, "Seeded %d products.\n", len(products))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML catalog file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
