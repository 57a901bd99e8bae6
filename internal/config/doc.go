// Package config handles configuration loading for chembot.
//
// # Overview
//
// Configuration is loaded from a TOML file with environment variable
// expansion. Every setting has a default, so an empty file (or no file for
// `chembot chat`) is valid; only the Matrix section is required for
// `chembot serve`.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. The --config flag
//  2. Path from CHEMBOT_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/chembot/config.toml
//  4. ~/.config/chembot/config.toml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	[matrix]
//	password = "${CHEMBOT_MATRIX_PASSWORD}"
//
// Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	[pubchem]
//	timeout = "10s"
//
//	[cache]
//	ttl = "1h"
//	cleanup_interval = "10m"
//
//	[bot]
//	image_timeout = "10s"
//	choice_ttl = "30m"
//
// # Configuration Sections
//
//	[matrix]
//	homeserver = "https://matrix.org"
//	username = "chembot"
//	password = "${CHEMBOT_MATRIX_PASSWORD}"
//	allowed_rooms = []          # empty = all joined rooms
//	command_prefix = "!"
//	typing_indicator = true
//
//	[pubchem]
//	base_url = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"
//	view_url = "https://pubchem.ncbi.nlm.nih.gov/compound"
//	requests_per_second = 5     # 0 = unlimited
//	similarity_threshold = 90
//	similar_limit = 5
//	random_max_cid = 200000
//	random_attempts = 5
//
//	[session]
//	database = ""               # empty = memory only
//	history_retention = 0       # 0 = unbounded
//	history_display = 5
//
//	[bot]
//	locale = "en"               # en, ru
//	examples_file = ""          # empty = built-in examples
//
//	[server]
//	http_addr = ":8080"         # empty = no health server
//
//	[logging]
//	level = "info"              # debug, info, warn, error
//	format = "text"             # text, json
//
// # Validation
//
// Load rejects unknown keys, malformed durations, out-of-range numbers and
// unsupported enumerated values. ValidateMatrix additionally requires the
// Matrix credentials.
package config
