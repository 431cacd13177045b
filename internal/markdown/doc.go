// Package markdown seeds pages from a directory of Markdown files and renders
// rich text fields to HTML with goldmark.
package markdown
