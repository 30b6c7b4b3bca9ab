package ops

import (
	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/proc"
)

// Program is an external program and the path it resolves to.
type Program struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Programs resolves every external program in display order.
// Programs not found on PATH keep their configured command.
func Programs(s config.Settings) []Program {
	programs := make([]Program, 0, len(config.ProgramNames))
	for _, name := range config.ProgramNames {
		programs = append(programs, Program{Name: name, Path: proc.Which(s.Program(name))})
	}
	return programs
}
