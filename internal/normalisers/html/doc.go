// Package html provides a Normaliser implementation for HTML documents.
// It extracts readable text content from HTML, skipping scripts, styles
// and the document head.
package html
