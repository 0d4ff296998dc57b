//go:build !cgo

package external

import "github.com/address-cleaner/app/models"

func Available() bool { return false }

func Reference(raw string, french bool) *models.Reference { return nil }
