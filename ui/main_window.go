package ui

import (
	"os"

	"autoexec/activity"
	"autoexec/engine"
	"autoexec/models"
	"autoexec/monitor"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fynestorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/cockroachdb/errors"
	"github.com/ncruces/zenity"
)

// NoneOption is the destructive dropdown entry that empties the autoexec folder
const NoneOption = "None (delete all)"

// MainWindow represents the main application window
type MainWindow struct {
	app     fyne.App
	window  fyne.Window
	engine  *engine.Engine
	watcher *monitor.Watcher
	log     *activity.Log

	logo        *LogoWidget
	folderLabel *widget.Label
	checkboxes  *fyne.Container // multi-select rows
	selector    *widget.Select  // single-select dropdown

	logWindow  fyne.Window
	logList    *widget.List
	logEntries []activity.Entry
}

// NewMainWindow creates a new main window.
// A nil watcher disables automatic refresh on folder changes.
func NewMainWindow(eng *engine.Engine, watcher *monitor.Watcher, activityLog *activity.Log) *MainWindow {
	myApp := app.NewWithID("com.wave.autoexec")
	myApp.Settings().SetTheme(theme.DarkTheme())
	myApp.SetIcon(theme.ComputerIcon())

	window := myApp.NewWindow("AutoExec")
	window.Resize(fyne.NewSize(300, 600))

	mw := &MainWindow{
		app:     myApp,
		window:  window,
		engine:  eng,
		watcher: watcher,
		log:     activityLog,
	}

	mw.setupUI()
	mw.log.Subscribe(mw.onLogEntry)
	mw.startWatcher()
	mw.refresh()
	if watcher != nil {
		go mw.consumeRescans()
	}

	window.SetOnClosed(mw.shutdown)
	return mw
}

// ShowAndRun shows the window and runs the application
func (mw *MainWindow) ShowAndRun() {
	mw.logo.Start()
	mw.window.ShowAndRun()
}

// setupUI sets up the user interface
func (mw *MainWindow) setupUI() {
	mw.logo = NewLogoWidget(mw.showLogWindow)

	title := widget.NewLabelWithStyle("Wave AutoExec", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	mw.folderLabel = widget.NewLabel("")
	mw.folderLabel.Alignment = fyne.TextAlignCenter
	mw.folderLabel.Truncation = fyne.TextTruncateEllipsis

	setFolderBtn := widget.NewButtonWithIcon("Set Scripts Folder", theme.FolderOpenIcon(), mw.chooseScriptsFolder)

	header := container.NewVBox(
		container.NewCenter(mw.logo),
		title,
		container.NewCenter(setFolderBtn),
		mw.folderLabel,
	)

	var body fyne.CanvasObject
	if mw.engine.Mode() == models.ModeSingle {
		mw.selector = widget.NewSelect(nil, nil)
		mw.selector.PlaceHolder = "Select a script"
		body = container.NewVBox(mw.selector)
	} else {
		mw.checkboxes = container.NewVBox()
		body = container.NewVScroll(mw.checkboxes)
	}

	mw.window.SetContent(container.NewBorder(header, nil, nil, nil, body))
}

// refresh re-derives the whole view from the folders on disk
func (mw *MainWindow) refresh() {
	r := mw.engine.Scan()

	if folder := mw.engine.SourceFolder(); folder != "" {
		mw.folderLabel.SetText(folder)
	} else {
		mw.folderLabel.SetText("No scripts folder selected")
	}

	if mw.engine.Mode() == models.ModeSingle {
		mw.refreshSelector(r)
	} else {
		mw.refreshCheckboxes(r)
	}
}

// refreshCheckboxes rebuilds the checkbox list in multi-select mode
func (mw *MainWindow) refreshCheckboxes(r engine.Reconciliation) {
	mw.checkboxes.RemoveAll()

	for _, script := range r.Scripts() {
		name := script.Name
		check := widget.NewCheck("", nil)
		check.SetChecked(script.Checked())
		// Assigned after SetChecked so building the row does not toggle anything
		check.OnChanged = func(on bool) {
			mw.toggleScript(name, on)
		}
		mw.checkboxes.Add(container.NewHBox(check, NewScriptLabel(name, script.State())))
	}

	if len(mw.checkboxes.Objects) == 0 {
		mw.checkboxes.Add(widget.NewLabel("No scripts found"))
	}
	mw.checkboxes.Refresh()
}

// refreshSelector rebuilds the dropdown in single-select mode
func (mw *MainWindow) refreshSelector(r engine.Reconciliation) {
	mw.selector.OnChanged = nil
	mw.selector.SetOptions(append([]string{NoneOption}, r.Source()...))

	if selected := mw.engine.Selected(); selected != "" {
		mw.selector.SetSelected(selected)
	} else {
		mw.selector.ClearSelected()
	}
	mw.selector.OnChanged = mw.selectScript
}

// toggleScript handles a checkbox change
func (mw *MainWindow) toggleScript(name string, on bool) {
	// Failures are already in the log; the re-scan shows the real state
	_ = mw.engine.Toggle(name, on)
	mw.ensureWatchingDestination()
	mw.refresh()
}

// selectScript handles a dropdown change
func (mw *MainWindow) selectScript(choice string) {
	if choice == NoneOption {
		dialog.ShowConfirm("Delete All Scripts",
			"Remove every script from the autoexec folder?",
			func(confirmed bool) {
				if confirmed {
					_ = mw.engine.SelectNone()
				}
				mw.refresh()
			}, mw.window)
		return
	}

	if err := mw.engine.Select(choice); errors.Is(err, engine.ErrMultipleActive) {
		dialog.ShowError(err, mw.window)
	}
	mw.ensureWatchingDestination()
	mw.refresh()
}

// chooseScriptsFolder opens the native folder picker, falling back to the Fyne dialog
func (mw *MainWindow) chooseScriptsFolder() {
	startPath := mw.getLastUsedPath()

	go func() {
		folder, err := zenity.SelectFile(
			zenity.Title("Set Scripts Folder"),
			zenity.Directory(),
			zenity.Filename(startPath),
		)
		fyne.Do(func() {
			switch {
			case errors.Is(err, zenity.ErrCanceled):
			case err != nil:
				mw.log.Debug("Native folder picker unavailable", "error", err)
				mw.openFyneFolderDialog(startPath)
			case folder != "":
				mw.setScriptsFolder(folder)
			}
		})
	}()
}

// openFyneFolderDialog is a fallback that uses the Fyne folder dialog
func (mw *MainWindow) openFyneFolderDialog(startPath string) {
	folderDialog := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, mw.window)
			return
		}
		if uri == nil {
			return // User cancelled
		}
		mw.setScriptsFolder(uri.Path())
	}, mw.window)

	if startPath != "" {
		if listable, err := fynestorage.ListerForURI(fynestorage.NewFileURI(startPath)); err == nil {
			folderDialog.SetLocation(listable)
		}
	}

	folderDialog.Resize(fyne.NewSize(600, 450))
	folderDialog.Show()
}

// getLastUsedPath returns the current scripts folder or the user's home directory
func (mw *MainWindow) getLastUsedPath() string {
	if folder := mw.engine.SourceFolder(); folder != "" {
		return folder
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return homeDir
}

// setScriptsFolder switches the source folder and re-targets the watcher
func (mw *MainWindow) setScriptsFolder(folder string) {
	if err := mw.engine.SetSourceFolder(folder); err != nil {
		dialog.ShowError(err, mw.window)
	}
	mw.startWatcher()
	mw.refresh()
}

// startWatcher (re)targets the watcher at the current folders
func (mw *MainWindow) startWatcher() {
	if mw.watcher == nil {
		return
	}
	if err := mw.watcher.Restart(mw.engine.SourceFolder(), mw.engine.Destination()); err != nil {
		mw.log.Error("Failed to watch folders", "error", err)
	}
}

// ensureWatchingDestination restarts the watcher once the autoexec folder has been created
func (mw *MainWindow) ensureWatchingDestination() {
	if mw.watcher == nil {
		return
	}
	for _, dir := range mw.watcher.Watched() {
		if dir == mw.engine.Destination() {
			return
		}
	}
	if info, err := os.Stat(mw.engine.Destination()); err == nil && info.IsDir() {
		mw.startWatcher()
	}
}

// consumeRescans marshals watcher requests onto the UI goroutine until the watcher is closed
func (mw *MainWindow) consumeRescans() {
	for range mw.watcher.Rescans() {
		fyne.Do(mw.refresh)
	}
}

// showLogWindow opens a window listing the operation log
func (mw *MainWindow) showLogWindow() {
	if mw.logWindow != nil {
		mw.logWindow.RequestFocus()
		return
	}

	mw.logEntries = mw.log.Entries()
	mw.logList = widget.NewList(
		func() int {
			return len(mw.logEntries)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(mw.logEntries) {
				obj.(*widget.Label).SetText(mw.logEntries[id].String())
			}
		},
	)

	mw.logWindow = mw.app.NewWindow("Log Messages")
	mw.logWindow.Resize(fyne.NewSize(600, 300))
	mw.logWindow.SetContent(mw.logList)
	mw.logWindow.SetOnClosed(func() {
		mw.logWindow = nil
		mw.logList = nil
	})
	mw.logList.ScrollToBottom()
	mw.logWindow.Show()
}

// onLogEntry is called from whichever goroutine logged
func (mw *MainWindow) onLogEntry(entry activity.Entry) {
	fyne.Do(func() {
		if mw.logList == nil {
			return
		}
		mw.logEntries = append(mw.logEntries, entry)
		mw.logList.Refresh()
		mw.logList.ScrollToBottom()
	})
}

// shutdown stops background work when the window closes
func (mw *MainWindow) shutdown() {
	mw.logo.Stop()
	if mw.watcher != nil {
		mw.watcher.Close()
	}
}
