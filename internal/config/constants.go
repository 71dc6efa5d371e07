package config

import "time"

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultPort                 = "8080"
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
	DefaultLogDir               = "logs"
	DefaultEnvironment          = "dev"
	DefaultVersion              = "dev"
	DefaultIdempotencyCacheSize = 65536
	DefaultIdempotencyTTL       = 10 * time.Minute
	DefaultBridgeTimeout        = 2 * time.Second
	DefaultWorkerCount          = 8
	DefaultWorkerQueueSize      = 256
	DefaultPacketsPerSecond     = 60
	DefaultItemDefsPath         = "configs/items.yaml"
	DefaultStackMax             = 999
	DefaultBackpackSize         = 10
	DefaultPickupRadius         = 3.0
	DefaultDropTTL              = 30 * time.Minute
	DefaultDropSweepInterval    = time.Minute
)
