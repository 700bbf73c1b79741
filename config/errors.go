package config

import "errors"

var (
	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidTransferURL indicates the custody service URL is malformed.
	ErrInvalidTransferURL = errors.New("config: invalid transfer service URL")

	// ErrInvalidAdminAddress indicates the admin address is malformed.
	ErrInvalidAdminAddress = errors.New("config: invalid admin address")

	// ErrEmptyNativeAsset indicates the native asset name is empty.
	ErrEmptyNativeAsset = errors.New("config: native asset must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
