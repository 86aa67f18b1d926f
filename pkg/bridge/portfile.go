package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// portFileName is the well-known discovery file under the user's home
// directory. The capture agent reads it to find the bridge across restarts.
const portFileName = ".omniclipper-bridge.port"

// DefaultPortFilePath returns the discovery file location in the user's
// home directory.
func DefaultPortFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, portFileName), nil
}

// WritePortFile advertises the bridge's listening port
func WritePortFile(path string, port int) error {
	if err := os.WriteFile(path, []byte(strconv.Itoa(port)), 0644); err != nil {
		return fmt.Errorf("write port file: %w", err)
	}
	return nil
}

// ReadPortFile returns the advertised port, or an error when the bridge is
// not running (file absent) or the file is garbled.
func ReadPortFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read port file: %w", err)
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port file contents: %q", strings.TrimSpace(string(data)))
	}
	return port, nil
}

// RemovePortFile clears the advertisement on clean shutdown. Missing file
// is not an error.
func RemovePortFile(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove port file: %w", err)
	}
	return nil
}
