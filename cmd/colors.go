package cmd

import (
	"strings"

	"github.com/fatih/color"

	"github.com/khanhnv2901/securitytxt/internal/checker"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case checker.StatusValid:
		return colorSuccess(status)
	case checker.StatusInvalid:
		return colorWarn(status)
	case checker.StatusError:
		return colorError(status)
	default:
		return status
	}
}
