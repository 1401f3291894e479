// Package api holds the HTTP request/response types generated from openapi.yaml.
package api

//go:generate go tool oapi-codegen -generate types -package api -o types.gen.go openapi.yaml
