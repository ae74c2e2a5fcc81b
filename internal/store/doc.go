// Package store persists packaging configurations to disk.
//
// A configuration is stored as a flat document whose keys match the
// original desktop tool's file, so existing config files keep loading:
//
//	{
//	    "python_path": "",
//	    "script_path": "/work/app/main.py",
//	    "output_path": "",
//	    "icon_path": "",
//	    "onefile": true,
//	    "window_mode": 2,
//	    "clean": true,
//	    "no_confirm": true,
//	    "auto_save": true,
//	    "extra_args": "",
//	    "data_files": ["images;images"],
//	    "hidden_imports": ["numpy"]
//	}
//
// JSON is the native format. Hand-edited files may contain comments and
// trailing commas (github.com/tidwall/jsonc strips them before parsing).
// Paths ending in .yaml or .yml are read and written as YAML with
// gopkg.in/yaml.v3 using the same keys.
//
// Keys missing from a file fall back to model.DefaultConfig, so configs
// written by older versions load without error.
package store
