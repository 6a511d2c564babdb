// Package domain models the forecast data written by the ingest task.
//
// # Data Source
//
// Forecasts come from the Open-Meteo forecast API
// (https://open-meteo.com/en/docs). The default request asks for hourly
// 2-metre air temperature at a fixed coordinate (San Francisco, 37.7749,
// -122.4194):
//
//	GET /v1/forecast?latitude=37.7749&longitude=-122.4194&hourly=temperature_2m
//
// A typical body looks like:
//
//	{
//	  "latitude": 37.763283,
//	  "longitude": -122.41286,
//	  "generationtime_ms": 0.0249,
//	  "utc_offset_seconds": 0,
//	  "timezone": "GMT",
//	  "elevation": 18.0,
//	  "hourly_units": {"time": "iso8601", "temperature_2m": "°C"},
//	  "hourly": {"time": ["2024-04-26T00:00", ...], "temperature_2m": [12.4, ...]}
//	}
//
// Nothing in this layout is relied on. The body is kept as an opaque
// [Document]: any syntactically valid JSON value is accepted, and numbers are
// carried as their original literals so re-serialization does not round them.
//
// # Records
//
// Each invocation produces exactly one [Record]:
//
//	id        UUID v4 string, partition key of the target table
//	forecast  the document re-serialized as a compact JSON string
//
// Records are append-only. IDs are random, not derived from the payload, so
// two invocations that fetch identical forecasts still write two records.
package domain
