package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/davidvella/byname/bench"
	"github.com/davidvella/byname/customer"
	"github.com/davidvella/byname/logging"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "BYNAME"

// Configuration keys. Flags carry the same names; environment variables are
// BYNAME_ followed by the key upper cased with dashes as underscores.
const (
	keyConfig      = "config"
	keyVerbosity   = "verbosity"
	keyDevelopment = "dev"
	keyBase        = "base"
	keyUpdates     = "updates"
	keyDeletes     = "deletes"
	keyImpl        = "impl"
	keyIterations  = "iterations"
	keyLast        = "last"
	keyDistrict    = "district"
	keyWarehouse   = "warehouse"
	keyStore       = "store"
	keyMetricsAddr = "metrics-addr"
	keyFormat      = "format"
)

// newViper returns a viper instance bound to flags and the environment, with
// the optional config file named by --config already read.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return v, nil
}

func loggingOptions(v *viper.Viper) logging.Options {
	return logging.Options{
		Verbosity:   v.GetInt(keyVerbosity),
		Development: v.GetBool(keyDevelopment),
	}
}

func params(v *viper.Viper) customer.Params {
	return customer.Params{
		Last:        v.GetString(keyLast),
		DistrictID:  v.GetInt32(keyDistrict),
		WarehouseID: v.GetInt32(keyWarehouse),
	}
}

// benchConfig assembles and validates the benchmark matrix.
func benchConfig(v *viper.Viper) (bench.Config, error) {
	cfg := bench.Config{
		BaseSize:   v.GetInt(keyBase),
		Iterations: v.GetInt(keyIterations),
		Params:     params(v),
	}

	var err error
	if cfg.UpdateSizes, err = intList(v, keyUpdates); err != nil {
		return cfg, err
	}
	if cfg.DeleteSizes, err = intList(v, keyDeletes); err != nil {
		return cfg, err
	}
	for _, name := range stringList(v, keyImpl) {
		impl, err := bench.ParseImplementation(name)
		if err != nil {
			return cfg, err
		}
		cfg.Implementations = append(cfg.Implementations, impl)
	}

	return cfg, cfg.Validate()
}

// stringList reads a list given as a flag, a config file array or a comma
// separated environment variable.
func stringList(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case nil:
	case string:
		raw = strings.Split(strings.Trim(val, "[]"), ",")
	case []string:
		raw = val
	case []any:
		for _, item := range val {
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		raw = []string{fmt.Sprint(val)}
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intList(v *viper.Viper, key string) ([]int, error) {
	if ints, ok := v.Get(key).([]int); ok {
		return ints, nil
	}

	var (
		out  []int
		errs []error
	)
	for _, s := range stringList(v, key) {
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s entry %q: %w", key, s, err))
			continue
		}
		out = append(out, n)
	}
	return out, errors.Join(errs...)
}
