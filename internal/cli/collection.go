package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newCollectionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage the vector collection",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create the collection if it does not exist",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := openApp(opts)
				if err != nil {
					return err
				}
				defer a.Close()
				ix, err := a.durableIndexer()
				if err != nil {
					return err
				}
				if err := ix.EnsureCollection(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Collection %q ready\n", a.cfg.VectorStore.Collection)
				return nil
			},
		},
		newRecreateCmd(opts),
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of stored points",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := openApp(opts)
				if err != nil {
					return err
				}
				defer a.Close()
				st, err := a.durableStorage()
				if err != nil {
					return err
				}
				n, err := st.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			},
		},
	)
	return cmd
}

func newRecreateCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "recreate",
		Short: "Drop and recreate the collection, deleting every stored point",
		Long: `Drops the collection and creates it empty. The hash records are not
touched, so follow this with a fresh hash file or every article is skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to drop the collection without --yes")
			}
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()
			ix, err := a.durableIndexer()
			if err != nil {
				return err
			}
			if err := ix.RecreateCollection(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Collection %q recreated\n", a.cfg.VectorStore.Collection)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm dropping all stored points")
	return cmd
}
