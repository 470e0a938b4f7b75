package config

import "errors"

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// Validate checks that the selected connection mode has its addresses.
func (r RedisConfig) Validate() error {
	switch {
	case r.UseSentinel && r.UseCluster:
		return errors.New("REDIS_USE_SENTINEL and REDIS_USE_CLUSTER are mutually exclusive")
	case r.UseCluster && len(r.ClusterNodes) == 0:
		return errors.New("REDIS_CLUSTER_NODES is required when REDIS_USE_CLUSTER=true")
	case r.UseSentinel && (len(r.SentinelNodes) == 0 || r.SentinelMasterName == ""):
		return errors.New("REDIS_SENTINEL_NODES and REDIS_SENTINEL_MASTER_NAME are required when REDIS_USE_SENTINEL=true")
	case !r.UseSentinel && !r.UseCluster && r.URI == "":
		return errors.New("REDIS_URI is required")
	default:
		return nil
	}
}
