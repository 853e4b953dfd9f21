package main

import (
	"github.com/vrprouting/vrp-service/internal/adapters"
	"github.com/vrprouting/vrp-service/internal/engines"
	"github.com/vrprouting/vrp-service/internal/registry"
	"github.com/vrprouting/vrp-service/pkg/config"
)

// registerAdapters populates the matrix adapter registry from config. Called
// once from main; nothing in this module registers an adapter via an init()
// side effect.
func registerAdapters(cfg *config.Config) (*registry.Registry[adapters.Adapter], error) {
	reg := registry.New[adapters.Adapter]()

	if err := reg.Register("euclidean", func() (adapters.Adapter, error) {
		return adapters.NewEuclidean(cfg.Adapters.EuclideanMetersPerUnit), nil
	}); err != nil {
		return nil, err
	}

	if err := reg.Register("haversine", func() (adapters.Adapter, error) {
		return adapters.NewHaversine(), nil
	}); err != nil {
		return nil, err
	}

	// LocalGraph owns a process-wide graph LRU (§5), so it is built once here
	// and the factory always hands back that same instance rather than a
	// fresh, empty cache on every Get.
	localGraph, err := adapters.NewLocalGraph(
		cfg.Adapters.LocalGraph.BufferMeters,
		cfg.Adapters.LocalGraph.NetworkType,
		cfg.Adapters.LocalGraph.CacheSize,
	)
	if err != nil {
		return nil, err
	}
	if err := reg.Register("local_graph", func() (adapters.Adapter, error) {
		return localGraph, nil
	}); err != nil {
		return nil, err
	}

	for name, endpoint := range cfg.Adapters.Online {
		if !endpoint.Enabled {
			continue
		}
		if err := reg.Register(name, func() (adapters.Adapter, error) {
			return adapters.NewOnline(name, endpoint, cfg.Retry), nil
		}); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// registerEngines populates the solver engine registry. All three engines
// are stateless and cheap to construct, so each factory simply builds one.
func registerEngines() (*registry.Registry[engines.Engine], error) {
	reg := registry.New[engines.Engine]()

	if err := reg.Register("coordinate", func() (engines.Engine, error) {
		return engines.NewCoordinate(), nil
	}); err != nil {
		return nil, err
	}

	if err := reg.Register("metaheuristic", func() (engines.Engine, error) {
		return engines.NewMetaheuristic(), nil
	}); err != nil {
		return nil, err
	}

	if err := reg.Register("mathprog", func() (engines.Engine, error) {
		return engines.NewMathProg(), nil
	}); err != nil {
		return nil, err
	}

	return reg, nil
}
