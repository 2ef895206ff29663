package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/compositions"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/domain"
)

var compositionCmd = &cobra.Command{
	Use:     "composition",
	Aliases: []string{"comp"},
	Short:   "Validate and manage audience compositions",
}

var compositionValidateCmd = &cobra.Command{
	Use:   "validate <file.yaml>",
	Short: "Validate a composition graph",
	Long: `Check a composition file for missing atoms, orphans, dangling connections
and cycles. Exits non-zero when the composition has errors.

Examples:
  kairos composition validate high-value.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runCompositionValidate,
}

var compositionSaveCmd = &cobra.Command{
	Use:   "save <file.yaml>",
	Short: "Create or update a composition from a file",
	Long: `Save a composition. A file with an id updates that composition; without
one a new draft is created.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompositionSave,
}

var compositionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List compositions",
	Args:  cobra.NoArgs,
	RunE:  runCompositionList,
}

var compositionTestCmd = &cobra.Command{
	Use:   "test <id>",
	Short: "Move a composition into testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompositionTransition(cmd, args[0], (*compositions.Service).Test)
	},
}

var compositionDeployCmd = &cobra.Command{
	Use:   "deploy <id>",
	Short: "Activate a tested composition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompositionTransition(cmd, args[0], (*compositions.Service).Deploy)
	},
}

var compositionDeactivateCmd = &cobra.Command{
	Use:   "deactivate <id>",
	Short: "Deactivate a composition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompositionTransition(cmd, args[0], (*compositions.Service).Deactivate)
	},
}

var compositionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a composition",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompositionDelete,
}

// errInvalidComposition signals a failed validation after the report was printed.
var errInvalidComposition = errors.New("composition is invalid")

func init() {
	rootCmd.AddCommand(compositionCmd)

	compositionCmd.AddCommand(compositionValidateCmd)
	compositionCmd.AddCommand(compositionSaveCmd)
	compositionCmd.AddCommand(compositionListCmd)
	compositionCmd.AddCommand(compositionTestCmd)
	compositionCmd.AddCommand(compositionDeployCmd)
	compositionCmd.AddCommand(compositionDeactivateCmd)
	compositionCmd.AddCommand(compositionDeleteCmd)
}

// readComposition decodes a composition file using its YAML field names.
func readComposition(path string) (*domain.Composition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c domain.Composition
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, path)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return &c, nil
}

func runCompositionValidate(cmd *cobra.Command, args []string) error {
	c, err := readComposition(args[0])
	if err != nil {
		return err
	}

	v := domain.ValidateComposition(c.Name, c.Atoms, c.Connections)
	printValidation(cmd.OutOrStdout(), c, v)
	if !v.IsValid {
		return errInvalidComposition
	}
	return nil
}

func printValidation(w io.Writer, c *domain.Composition, v domain.CompositionValidation) {
	name := c.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "Composition: %s\n", name)
	fmt.Fprintf(w, "Atoms: %d  Connections: %d\n", len(c.Atoms), len(c.Connections))
	fmt.Fprintf(w, "Score: %d/100\n", v.Score)

	if len(v.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, issue := range v.Errors {
			fmt.Fprintf(w, "  [%s] %s\n", issue.Code, issue.Message)
		}
	}
	if len(v.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, issue := range v.Warnings {
			fmt.Fprintf(w, "  [%s] %s\n", issue.Code, issue.Message)
		}
	}

	if v.IsValid {
		fmt.Fprintln(w, "\nValid")
	} else {
		fmt.Fprintln(w, "\nInvalid")
	}
}

func runCompositionSave(cmd *cobra.Command, args []string) error {
	c, err := readComposition(args[0])
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		saved, v, err := app.Compositions.Save(ctx, c)
		if err != nil {
			var verr *compositions.ValidationError
			if errors.As(err, &verr) {
				printValidation(cmd.OutOrStdout(), c, verr.Validation)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved composition %s (%s) with score %d\n", saved.Name, saved.ID, v.Score)
		return nil
	})
}

func runCompositionList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		list, err := app.Compositions.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No compositions found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTATUS\tATOMS\tSCORE\tUPDATED")
		fmt.Fprintln(w, "--\t----\t------\t-----\t-----\t-------")
		for _, c := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				c.ID, c.Name, c.Status, len(c.Atoms), c.Validate().Score, c.UpdatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	})
}

func runCompositionTransition(cmd *cobra.Command, id string, action func(*compositions.Service, context.Context, string) (*domain.Composition, error)) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		c, err := action(app.Compositions, ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Composition %s is now %s\n", c.Name, c.Status)
		return nil
	})
}

func runCompositionDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		if err := app.Compositions.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted composition %s\n", args[0])
		return nil
	})
}
