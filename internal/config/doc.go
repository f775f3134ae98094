// Package config loads the Auralens configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. Built-in defaults (New).
//  2. An optional auralens.json file.
//  3. Environment variables prefixed with AURALENS_, optionally read from a
//     .env file in the working directory.
//
// Example auralens.json:
//
//	{
//	  "server": {"host": "0.0.0.0", "port": 8080},
//	  "upload": {"maxFileSize": 10485760, "tempExpiry": "10m"},
//	  "content": {"sceneURL": "https://prod.spline.design/.../scene.splinecode"},
//	  "log": {"level": "debug", "format": "json"}
//	}
//
// Durations are Go duration strings ("30s", "10m").
package config
