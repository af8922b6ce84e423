// Package registry stores definitions by id with optional delegation to a
// parent registry, the way a child application context falls back to its
// parent. FlowRegistry holds built flows; the model package stores flow
// models in the same structure.
package registry
