package main

import (
	"autoexec/cmd"
	"autoexec/ui"
)

func main() {
	cmd.Execute(func(s *cmd.Session) error {
		s.Log.Info("Starting AutoExec", "mode", s.Config.Mode, "autoexec", s.Config.Destination)
		ui.NewMainWindow(s.Engine, s.Watcher, s.Log).ShowAndRun()
		return nil
	})
}
