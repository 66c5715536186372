// Package core contains the data-plane transfer contracts, entities, and
// orchestration logic. Flow controllers, converters, and stores are adapters
// that depend on this package; core must not depend on backend-specific or
// transport-specific adapters.
package core
