//go:build tinygo || !cgo

package gsdfaux

import (
	"errors"

	interstella "github.com/ryry0/Interstella"
)

func ui(demo interstella.Demo, cfg UIConfig) error {
	return errors.New("require cgo for UI rendering")
}
