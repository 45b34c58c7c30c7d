// Package storage selects the storage provider certificates are written to.
package storage

import "certify/internal/ports"

// Provider is what a run writes its PNGs through.
type Provider = ports.StorageProvider
