// Package ui holds the styled terminal output of the wallcrawl command.
//
// Status messages go to stderr so that stdout carries only results.
// Styling uses github.com/charmbracelet/lipgloss, which drops colors
// automatically when the output is not a terminal.
package ui
