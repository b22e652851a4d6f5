// Package file persists configuration to the local filesystem.
//
// ConfigStore keeps flat key/value settings in ~/.quarry/config.toml and
// writes the file back on every Set. The settings readers in this package
// translate stored keys into the typed config structs the services take.
package file
