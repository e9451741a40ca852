// Package checkpoint persists the opaque next-page cursor of a source so a
// later run can continue where the previous one stopped.
//
// Each source gets its own JSON file named after a hash of the source
// string. Files are written to a temporary name and renamed into place.
// When no directory is configured the platform data directory is used:
//   - Linux: $XDG_DATA_HOME/wallcrawl/cursors or ~/.local/share/wallcrawl/cursors
//   - macOS: ~/Library/Application Support/wallcrawl/cursors
//   - Windows: %APPDATA%/wallcrawl/cursors
package checkpoint
