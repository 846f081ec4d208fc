// Copyright 2015 Auburn University. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package config manages the configuration of the analysis tool.

Use [Load](filename) to load a configuration from a specific file.

Use [SetGlobalConfig](filename) to set filename as the global config, and
then [LoadGlobal]() to load it.

A config file is written in YAML or TOML.  All settings live under the
top-level options key; settings that are omitted keep their default values.
For example, a valid YAML config file is as follows:

	options:
	  log-level: 4
	  worklist: fifo
	  show-constraints: true

and the same configuration in TOML:

	[options]
	log-level = 4
	worklist = "fifo"
	show-constraints = true
*/
package config
