package models

// Target identifies a downstream consumer API.
type Target string

const (
	TargetMigtra Target = "migtra"
	TargetGauss  Target = "gauss"
)
