// Package main provides the entry point for the collective blogging
// platform. It runs a web server using the Fiber framework exposing a
// REST API for blogs, memberships, posts, comments and votes. The
// application uses gorm for data persistence and keeps denormalized
// rating and karma columns in sync with the vote ledgers.
package main
