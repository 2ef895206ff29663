package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// withApp runs fn with a freshly opened AppContext and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *AppContext) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := NewAppContext(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	return fn(ctx, app)
}
