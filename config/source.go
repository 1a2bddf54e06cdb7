package config

// Source records which layer supplied a resolved value.
type Source string

const (
	SourceDefault Source = "default"
	SourceGlobal  Source = "global" // ~/.config/agdt/config.yaml
	SourceLocal   Source = "local"  // .agdt.yaml in the git root
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)
