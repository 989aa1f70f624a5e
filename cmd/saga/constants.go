package main

// Default limits for CLI commands.
const (
	DefaultSearchLimit = 10
	DefaultListLimit   = 50
	DefaultGoalLimit   = 100
)
