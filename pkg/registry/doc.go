// Package registry holds the tools that model-backed workers may call.
package registry
