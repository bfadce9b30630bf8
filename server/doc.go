// Package server hosts the audioreport HTTP surface: a Gin engine behind a
// net/http middleware chain, served over HTTP/1.1 and h2c.
package server
