// Package config loads the grimoire-deploy YAML configuration.
//
// Values support ${VAR_NAME} environment expansion, and duration fields
// accept Go duration strings ("2s", "500ms"). Load validates required
// fields and returns the first failure.
package config
