// Package storeconfig loads corestore.Option values (thread count, grace
// time, auto-init) from a configuration file through a small Feeder
// interface, the way the teacher's config package loads module config
// through feeders/*.go. Thread counts and durations read back from YAML
// often arrive as float64 or string rather than int/time.Duration; this
// package uses github.com/golobby/cast to coerce them, the same tool the
// teacher's feeders/affixed_env.go uses for the same reason.
package storeconfig

import (
	"fmt"
	"time"

	"github.com/golobby/cast"

	"github.com/corestore/corestore"
)

// Feeder reads a configuration source into target, a pointer to a struct.
// TomlFeeder and YamlFeeder in the sibling feeders package implement it.
type Feeder interface {
	Feed(target any) error
}

// RawOptions mirrors the on-disk shape of a store configuration file.
// Fields are loosely typed (any) because different feeders hand back
// different native types for the same logical value — e.g. a TOML int64
// versus a YAML float64 versus an env-style string — and are coerced to
// their strict type by Load.
type RawOptions struct {
	AutoInit          bool `toml:"auto_init" yaml:"auto_init"`
	SideEffectThreads any  `toml:"side_effect_threads" yaml:"side_effect_threads"`
	GraceTimeSeconds  any  `toml:"grace_time_seconds" yaml:"grace_time_seconds"`
}

// Options is RawOptions after type coercion, ready to be turned into
// corestore.Option values.
type Options struct {
	AutoInit          bool
	SideEffectThreads int
	GraceTime         time.Duration
}

// Load reads RawOptions through feeder and coerces each field to its
// strict type.
func Load(feeder Feeder) (Options, error) {
	var raw RawOptions
	if err := feeder.Feed(&raw); err != nil {
		return Options{}, err
	}
	return resolve(raw)
}

func resolve(raw RawOptions) (Options, error) {
	var opts Options
	opts.AutoInit = raw.AutoInit

	threads := 4
	if raw.SideEffectThreads != nil {
		t, err := cast.ToInt(raw.SideEffectThreads)
		if err != nil {
			return Options{}, fmt.Errorf("storeconfig: side_effect_threads: %w", err)
		}
		threads = t
	}
	opts.SideEffectThreads = threads

	seconds := 5.0
	if raw.GraceTimeSeconds != nil {
		s, err := cast.ToFloat64(raw.GraceTimeSeconds)
		if err != nil {
			return Options{}, fmt.Errorf("storeconfig: grace_time_seconds: %w", err)
		}
		seconds = s
	}
	opts.GraceTime = time.Duration(seconds * float64(time.Second))

	return opts, nil
}

// StoreOptions converts Options into the corestore.Option values NewStore
// expects.
func (o Options) StoreOptions() []corestore.Option {
	return []corestore.Option{
		corestore.WithAutoInit(o.AutoInit),
		corestore.WithSideEffectThreads(o.SideEffectThreads),
		corestore.WithGraceTime(o.GraceTime),
	}
}
