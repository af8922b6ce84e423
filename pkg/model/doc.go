// Package model holds the declarative form of flows and a registry of flow
// models. Models are parsed from YAML or JSON, or decoded from document
// frontmatter, and a model may name a parent whose states it inherits.
package model
