// Package config loads mediafetch settings.
//
// Settings come from three layers, lowest precedence first:
//
//   - defaults declared in the Config struct tags
//   - an optional Lua file (config.lua) assigning a global "mediafetch" table
//   - MEDIAFETCH_* environment variables
//
// The Lua file runs in a sandboxed gopher-lua VM. The os, io and module
// loading libraries are removed, so a config can only compute values. A
// read-only "platform" table is injected before the file runs, which lets
// one file serve several machines:
//
//	mediafetch = {
//	  libraries_dir = "~/.mediafetch/bin",
//	  output_dir    = "~/Videos",
//	  timeout       = "45s",
//	  extra_args    = { platform.when(platform.is_linux, "--no-mtime") },
//	}
//
// Paths accept a leading "~". Values are validated after all layers are
// applied; failures are reported as *ParseError.
package config
