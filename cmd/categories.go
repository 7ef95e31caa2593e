package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadradar/leadradar-cli/pkg/overpass"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the supported business categories",
	Run: func(cmd *cobra.Command, args []string) {
		for _, c := range overpass.Categories() {
			fmt.Println(c)
		}
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}
