// Package opener opens a link in a named browser application.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Opener opens a URL for the user
type Opener interface {
	Open(ctx context.Context, url string) error
}

// AppOpener starts App with Args on the URL using the OS launcher
type AppOpener struct {
	App  string
	Args []string

	goos  string
	start func(ctx context.Context, name string, args ...string) error
}

// New creates an AppOpener for the current OS
func New(app string, args []string) *AppOpener {
	return &AppOpener{
		App:   app,
		Args:  args,
		goos:  runtime.GOOS,
		start: startDetached,
	}
}

// startDetached starts a process without waiting for it to exit
func startDetached(ctx context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

// Command returns the program and arguments used to open url
func (o *AppOpener) Command(url string) (string, []string) {
	switch o.goos {
	case "darwin":
		args := []string{}
		if o.App != "" {
			args = append(args, "-a", o.App)
		}
		args = append(args, url)
		if len(o.Args) > 0 {
			args = append(args, "--args")
			args = append(args, o.Args...)
		}
		return "open", args
	case "windows":
		args := []string{"/c", "start", ""}
		if o.App != "" {
			args = append(args, o.App)
		}
		args = append(args, o.Args...)
		return "cmd", append(args, url)
	default:
		if o.App == "" {
			return "xdg-open", []string{url}
		}
		args := append([]string{}, o.Args...)
		return strings.ToLower(o.App), append(args, url)
	}
}

// Open launches the browser on url
func (o *AppOpener) Open(ctx context.Context, url string) error {
	name, args := o.Command(url)
	if err := o.start(ctx, name, args...); err != nil {
		return fmt.Errorf("opening %s with %s: %w", url, name, err)
	}
	return nil
}
