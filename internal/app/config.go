package app

import (
	"gopkg.in/yaml.v3"
)

// PrintConfig writes the effective configuration as YAML.
func (a *App) PrintConfig() error {
	enc := yaml.NewEncoder(a.Out)
	enc.SetIndent(2)
	if err := enc.Encode(a.Config); err != nil {
		return err
	}
	return enc.Close()
}
