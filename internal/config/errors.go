package config

import "errors"

// Sentinel error kinds returned by Load and Validate.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	// ErrWeightTable marks a weight table that is negative or does not sum
	// to one. It is always wrapped together with ErrInvalidConfig.
	ErrWeightTable = errors.New("bad weight table")
)
