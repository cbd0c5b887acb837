// Package grid supplies energy signals: spot price, carbon intensity, grid
// availability and P415 demand-flexibility events, both current and as an
// hourly forecast. The SimulatedSource shapes values by hour of day the way
// UK grid conditions behave (peak pricing 16:00-20:00, low-carbon nights);
// RedisCache adds a shared forecast cache in front of any source.
package grid
