package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Инстанс
	AttrInstanceVehicles = "instance.vehicles"
	AttrInstanceStops    = "instance.stops"
	AttrInstanceHasTW    = "instance.has_time_windows"
	AttrInstanceHasPD    = "instance.has_pickup_delivery"

	// Решатель
	AttrEngine          = "engine.name"
	AttrEngineTimeLimit = "engine.time_limit_seconds"
	AttrVehiclesUsed    = "engine.vehicles_used"
	AttrTotalDistance   = "engine.total_distance"
	AttrUnassigned      = "engine.unassigned_stops"

	// Адаптер матриц
	AttrAdapter    = "adapter.name"
	AttrMatrixSize = "adapter.matrix_size"
	AttrCacheHit   = "adapter.cache_hit"
)

// InstanceAttributes returns the span attributes describing a normalized
// solve instance's shape.
func InstanceAttributes(vehicles, stops int, hasTimeWindows, hasPickupDelivery bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrInstanceVehicles, vehicles),
		attribute.Int(AttrInstanceStops, stops),
		attribute.Bool(AttrInstanceHasTW, hasTimeWindows),
		attribute.Bool(AttrInstanceHasPD, hasPickupDelivery),
	}
}

// EngineAttributes returns the span attributes describing a solver
// engine's invocation and outcome.
func EngineAttributes(name string, timeLimitSeconds float64, vehiclesUsed int, totalDistance float64, unassigned int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrEngine, name),
		attribute.Float64(AttrEngineTimeLimit, timeLimitSeconds),
		attribute.Int(AttrVehiclesUsed, vehiclesUsed),
		attribute.Float64(AttrTotalDistance, totalDistance),
		attribute.Int(AttrUnassigned, unassigned),
	}
}

// AdapterAttributes returns the span attributes describing a matrix
// adapter call.
func AdapterAttributes(name string, matrixSize int, cacheHit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAdapter, name),
		attribute.Int(AttrMatrixSize, matrixSize),
		attribute.Bool(AttrCacheHit, cacheHit),
	}
}
