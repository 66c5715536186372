// Package transform resolves typed value transformers by their input and
// output types. Registries can be chained through a fallback resolver so a
// specialised registry only needs to register what differs from a base one.
package transform
