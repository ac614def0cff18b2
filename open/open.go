// Package open hands links the player cannot show to the system browser.
package open

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/livetv-cli/livetv/constant"
	"github.com/livetv-cli/livetv/log"
)

// ErrUnsupportedLink is returned for anything but absolute http(s) URLs.
var ErrUnsupportedLink = errors.New("only http and https links can be opened")

// Start opens link with the default handler without waiting for it.
func Start(link string) error {
	cmd, err := command(runtime.GOOS, link)
	if err != nil {
		return err
	}

	log.Infof("opening %s externally", link)
	return cmd.Start()
}

func command(goos, link string) (*exec.Cmd, error) {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLink, link)
	}

	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", link), nil
	case constant.Darwin:
		return exec.Command("open", link), nil
	case constant.Linux:
		return exec.Command("xdg-open", link), nil
	case constant.Android:
		return exec.Command("termux-open-url", link), nil
	default:
		return nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}
