// Package config provides configuration loading for selsync.
//
// The configuration is read from selsync.json by default. TOML and YAML
// files are accepted as well; the format follows the file extension.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "readTimeout": "10s",
//	    "writeTimeout": "10s"
//	  },
//	  "metrics": {"enabled": true, "path": "/metrics"},
//	  "log": {"level": "info", "format": "text"},
//	  "selection": {
//	    "mode": "extended",
//	    "options": ["alpha", "beta", "gamma"],
//	    "initial": ["beta"]
//	  },
//	  "snapshot": {
//	    "store": "s3",
//	    "key": "default",
//	    "cacheSize": 64,
//	    "s3": {"bucket": "selections", "prefix": "selections/", "region": "eu-west-1"}
//	  },
//	  "watch": {"file": "./selection.txt"}
//	}
//
// SELSYNC_PORT and SELSYNC_LOG_LEVEL override the file.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
