// Package docsite provides the client-side customization layer for a
// documentation website: a build-time metadata extractor, a privacy-first
// analytics collector, and a placeholder configurator that lets readers fill
// in values used by code samples.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, http/).
package docsite
