// Package version reports the build version of assetgraph binaries.
//
// Version, commit and build time are set at link time; anything left unset
// is read from the module build info.
package version
