// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "collective-blog",
	Short: "collective-blog is a multi-tenant community blogging platform",
	Long: `collective-blog is a multi-tenant community blogging platform where
users create blogs, join them under configurable access policies, publish
posts and comments, and vote on posts, comments and each other's karma.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
