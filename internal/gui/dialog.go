package gui

import "github.com/sqweek/dialog"

// ShowResult pops a blocking message box with the final result.
func ShowResult(title, text string) {
	dialog.Message("%s", text).Title(title).Info()
}
