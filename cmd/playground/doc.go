// Package main is the playground command line tool.
//
// It runs a project directory through the same engine the server uses,
// without a server.
//
// Usage:
//
//	# Build, render headless and print the console
//	playground build -o preview.html ./my-app
//
//	# Interactive terminal over the project (changes are not saved)
//	playground shell ./my-app
//
//	# Package the project
//	playground export -format tar.gz -o my-app.tar.gz ./my-app
package main
