package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chongma/gql-subscriptions-client/pkg/posts"
	"github.com/chongma/gql-subscriptions-client/pkg/transport"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	ID   string
	Body string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Run the UpdatePost mutation once",
		Long: `Run the UpdatePost mutation against the HTTP endpoint. Running views
of the post pick the change up through their subscription.

Example:
  postsview update --id 1
  postsview update --id 1 --body "Hello there."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "id of the post (required)")
	cmd.Flags().StringVar(&opts.Body, "body", "", "new body, lorem ipsum when empty")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func runUpdate(cmd *cobra.Command, opts *UpdateOptions) error {
	split, err := transport.NewSplit(newRequester(opts.Config, opts.Logger), nil, transport.SplitOptions{
		Logger: opts.Logger,
	})
	if err != nil {
		return err
	}

	body := opts.Body
	if body == "" {
		body = posts.LoremBodies(nil)()
	}

	post, err := posts.NewClient(split, opts.Logger).Update(cmd.Context(), opts.ID, body)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "mutated %s: %s\n", post.ID, post.Body)
	return err
}
