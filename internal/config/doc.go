// Package config defines the configuration surface of the auth subsystem
// and loads it from YAML files with environment variable substitution.
//
// Configuration is built once at process startup and treated as immutable
// afterward. Every config struct carries a Validate method; validation
// failures are fatal and must keep the process from serving traffic.
package config
