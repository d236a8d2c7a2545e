package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/wiring"
)

func loadServices(root string) (*wiring.AppServices, error) {
	services, loadErr := wiring.BuildAppServices(root)
	if services == nil {
		return nil, fmt.Errorf("failed to build services: %w", loadErr)
	}
	if loadErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", loadErr)
	}
	return services, nil
}

func getProjectRoot() (string, error) {
	if workspacePath != "" {
		abs, err := filepath.Abs(workspacePath)
		if err != nil {
			return "", fmt.Errorf("invalid workspace path %q: %w", workspacePath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("workspace path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("workspace path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

// withServices runs fn against the services of the current workspace and
// closes the store afterwards.
func withServices(fn func(*wiring.AppServices) error) error {
	root, err := getProjectRoot()
	if err != nil {
		return err
	}
	services, err := loadServices(root)
	if err != nil {
		return err
	}
	defer func() { _ = services.Close() }()
	return fn(services)
}
