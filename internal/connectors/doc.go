// Package connectors holds the adapters that discover documents outside
// the library. Each connector turns a source location into file paths the
// document service can import.
package connectors
