package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("ignonfollowers").Show($toast)
	`, xmlEscape(title), xmlEscape(message))

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

// Notifier prints a status line and optionally raises a desktop
// notification. Delivery errors are ignored.
type Notifier struct {
	sender  NotificationSender
	enabled bool
}

// NewNotifier picks the sender for the current platform
func NewNotifier(enabled bool) *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}

	return &Notifier{sender: sender, enabled: enabled}
}

// NewNotifierWithSender uses an explicit sender
func NewNotifierWithSender(sender NotificationSender, enabled bool) *Notifier {
	return &Notifier{sender: sender, enabled: enabled}
}

func (n *Notifier) send(title, message string) {
	if n.enabled && n.sender != nil {
		_ = n.sender.Send(title, message)
	}
}

// SendSuccess announces a finished report
func (n *Notifier) SendSuccess(title, message string) {
	fmt.Fprintf(out, "\n%s: %s\n", Green(title), Green(message))
	n.send(title, message)
}

// SendError announces a failed run
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(out, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message)
}
