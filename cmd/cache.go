package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the lead result cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newCacheStore(cmd.Context(), cfg)
		if err != nil {
			return eris.Wrap(err, "init cache store")
		}
		defer store.Close()

		removed, err := store.DeleteExpired(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "purge cache")
		}
		fmt.Fprintf(os.Stderr, "removed %d expired entries\n", removed)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newCacheStore(cmd.Context(), cfg)
		if err != nil {
			return eris.Wrap(err, "init cache store")
		}
		defer store.Close()

		if err := store.Clear(cmd.Context()); err != nil {
			return eris.Wrap(err, "clear cache")
		}
		fmt.Fprintln(os.Stderr, "cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
