package conf

import "errors"

var (
	ErrReadingConfigFile  = errors.New("failed to read the config file")
	ErrReadingEnv         = errors.New("failed to read the config from the environment")
	ErrUnmarshalingConfig = errors.New("failed to unmarshal the config")
	ErrInvalidPortRange   = errors.New("the ephemeral port range is invalid")
	ErrNotAStruct         = errors.New("the config is not a struct")
)
