package storage

import "reelsmith/internal/ports"

// Provider is the storage contract used by the publisher. It is an
// alias to ports.StorageProvider to keep call-sites simple.
type Provider = ports.StorageProvider
