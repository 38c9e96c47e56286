package engine

import (
	"sort"

	"autoexec/models"
	"autoexec/scanner"
)

// Reconciliation compares the tracked scripts of the source and destination folders
type Reconciliation struct {
	InSourceOnly      []string
	InDestinationOnly []string
	InBoth            []string
}

// Reconcile splits two listings into their differences and intersection.
// Every slice is sorted.
func Reconcile(source, destination scanner.Set) Reconciliation {
	var r Reconciliation
	for name := range source {
		if destination.Has(name) {
			r.InBoth = append(r.InBoth, name)
		} else {
			r.InSourceOnly = append(r.InSourceOnly, name)
		}
	}
	for name := range destination {
		if !source.Has(name) {
			r.InDestinationOnly = append(r.InDestinationOnly, name)
		}
	}

	sort.Strings(r.InSourceOnly)
	sort.Strings(r.InDestinationOnly)
	sort.Strings(r.InBoth)
	return r
}

// Scripts returns the union of both folders, sorted by name
func (r Reconciliation) Scripts() []models.ScriptFile {
	scripts := make([]models.ScriptFile, 0, len(r.InSourceOnly)+len(r.InDestinationOnly)+len(r.InBoth))
	for _, name := range r.InSourceOnly {
		scripts = append(scripts, models.ScriptFile{Name: name, InSource: true})
	}
	for _, name := range r.InDestinationOnly {
		scripts = append(scripts, models.ScriptFile{Name: name, InDestination: true})
	}
	for _, name := range r.InBoth {
		scripts = append(scripts, models.ScriptFile{Name: name, InSource: true, InDestination: true})
	}

	sort.Slice(scripts, func(i, j int) bool { return scripts[i].Name < scripts[j].Name })
	return scripts
}

// Source returns every script available in the source folder, sorted
func (r Reconciliation) Source() []string {
	names := append(append([]string(nil), r.InSourceOnly...), r.InBoth...)
	sort.Strings(names)
	return names
}

// Active returns every script present in the destination folder, sorted
func (r Reconciliation) Active() []string {
	names := append(append([]string(nil), r.InBoth...), r.InDestinationOnly...)
	sort.Strings(names)
	return names
}
