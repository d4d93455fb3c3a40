// Package config provides configuration parsing for moqwire.
//
// The configuration is stored in moqwire.json. Every field is optional;
// missing fields keep their defaults.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "addr": "localhost:8080",
//	    "readLimit": 1048576,
//	    "maxMessageSize": 65536,
//	    "selectedVersion": "0xff000006",
//	    "shutdownTimeout": "10s"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "moqwire",
//	    "path": "/metrics"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "moqwire"
//	  },
//	  "capture": {
//	    "dir": "captures",
//	    "maxSize": 8388608,
//	    "s3": {
//	      "bucket": "moq-captures",
//	      "prefix": "relay-1/",
//	      "region": "us-east-1"
//	    }
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
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
//	fmt.Println("Listening on", cfg.Server.Addr)
package config
