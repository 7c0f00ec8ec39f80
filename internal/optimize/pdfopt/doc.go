// Package pdfopt rewrites PDFs through an external PostScript-to-PDF tool
// with a lossy or lossless preset, optionally linearizing the input first.
package pdfopt
