// Package workspace manages local output directories for generated site
// bundles, supporting both ephemeral (timestamped) and fixed-path modes.
//
// Ephemeral mode creates timestamped directories (e.g., gitlyte-20260823-122336)
// suitable for one-shot previews, cleaning up completely after use.
//
// Output mode writes into a caller-chosen directory (e.g., ./site) that
// survives Cleanup, so a preview can be inspected or published by hand.
package workspace
