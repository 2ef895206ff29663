package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/adapters/catalog"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/infrastructure/config"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/util"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the audience catalog",
	Long: `Browse the segments and atoms available for targeting. The catalog is read
from KAIROS_CATALOG_FILE, or the built-in catalog when unset.`,
}

var catalogSegmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "List audience segments",
	Args:  cobra.NoArgs,
	RunE:  runCatalogSegments,
}

var catalogAtomsCmd = &cobra.Command{
	Use:   "atoms",
	Short: "List filterable atoms",
	Long: `List filterable atoms.

Examples:
  kairos catalog atoms
  kairos catalog atoms --type behavioral`,
	Args: cobra.NoArgs,
	RunE: runCatalogAtoms,
}

var catalogAtomType string

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogSegmentsCmd)
	catalogCmd.AddCommand(catalogAtomsCmd)

	catalogAtomsCmd.Flags().StringVarP(&catalogAtomType, "type", "t", "", "Filter by atom type")
}

func loadCatalog() (*catalog.Directory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return catalog.Load(cfg.CatalogFile)
}

func runCatalogSegments(cmd *cobra.Command, args []string) error {
	dir, err := loadCatalog()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSIZE\tREACH")
	fmt.Fprintln(w, "--\t----\t----\t-----")
	for _, s := range dir.ListSegments() {
		reach := float64(s.Size) / float64(dir.Population())
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, util.FormatNumber(s.Size), util.FormatPercent(reach))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nPopulation: %s\n", util.FormatNumber(dir.Population()))
	return nil
}

func runCatalogAtoms(cmd *cobra.Command, args []string) error {
	dir, err := loadCatalog()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSELECTIVITY\tOPERATORS")
	fmt.Fprintln(w, "--\t----\t----\t-----------\t---------")
	for _, a := range dir.ListAtoms() {
		if catalogAtomType != "" && !strings.EqualFold(string(a.Type), catalogAtomType) {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Type, util.FormatPercent(a.Selectivity), strings.Join(a.Operators, ", "))
	}
	return w.Flush()
}
