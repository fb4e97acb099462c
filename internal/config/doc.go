// Package config loads YAML run files for the merge and diagnostics tools.
//
// A run file looks like:
//
//	log_mode: prod
//	merge:
//	  file_pattern: "postprocess_*.nc"
//	  output_filename: postprocess.nc
//	  print_level: 1
//	diagnostics:
//	  input: postprocess.nc
//	  output_dir: Diagnostics
//	  worker_count: 4
//
// Values given on the command line override the file.
package config
