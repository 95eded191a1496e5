// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract page
// text from a specific MIME type.
//
// NewDefaultRegistry wires the built-in normalisers: PDF (via pdftotext),
// DOCX, HTML and the plain text fallback.
package normalisers
