//go:build tools
// +build tools

// Package tools pins build-time tool dependencies so go.mod keeps tracking
// their versions.
package tools

import (
	_ "github.com/air-verse/air"
	_ "github.com/swaggo/swag/cmd/swag"
)
