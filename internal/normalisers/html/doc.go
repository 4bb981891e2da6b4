// Package html extracts the visible text of HTML pages with goquery,
// one block element per line.
package html
