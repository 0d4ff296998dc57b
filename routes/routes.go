// Package routes mounts the HTTP API of the address cleaner.
//
//   - api.go: /v1 routes and health checks
//   - web.go: index and endpoint listing
package routes
