// Package config provides configuration loading for weave.
//
// The configuration is read from weave.json, weave.yaml, or weave.toml at
// the project root. This package handles loading, saving, and validating
// it.
//
// # Configuration File Structure
//
//	{
//	  "expressionCacheSize": 1024,
//	  "logLevel": "info",
//	  "server": {
//	    "addr": "localhost:3000",
//	    "allowedOrigins": ["http://localhost:5173"]
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "weave"
//	  },
//	  "templates": {
//	    "dir": "templates",
//	    "s3": {
//	      "bucket": "my-templates",
//	      "prefix": "site/",
//	      "region": "us-east-1"
//	    }
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.Server.Addr)
package config
