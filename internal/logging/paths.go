package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.deepseeker/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".deepseeker", "logs")
	}
	return filepath.Join(home, ".deepseeker", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// OllamaLogPath returns the path deepseeker mirrors Ollama request/response
// diagnostics to, when the embedder is configured against a local Ollama
// instance.
func OllamaLogPath() string {
	return filepath.Join(DefaultLogDir(), "ollama.log")
}

// LogSource represents the source of logs to view.
type LogSource string

const (
	// LogSourceGo is the deepseeker server's own logs (default).
	LogSourceGo LogSource = "go"
	// LogSourceOllama is the mirrored Ollama embedding backend logs.
	LogSourceOllama LogSource = "ollama"
	// LogSourceAll combines all log sources.
	LogSourceAll LogSource = "all"
)

// FindLogFile attempts to find the log file for viewing.
// Priority:
// 1. Explicit path (if provided)
// 2. ~/.deepseeker/logs/server.log (global)
//
// Returns an error if no log file is found.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	globalPath := DefaultLogPath()
	if _, err := os.Stat(globalPath); err == nil {
		return globalPath, nil
	}

	return "", fmt.Errorf("no log file found. Server may not have run with --debug yet.\nExpected at: %s", globalPath)
}

// FindLogFileBySource finds log files based on the source type.
// Returns a list of log file paths that exist.
func FindLogFileBySource(source LogSource, explicit string) ([]string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return []string{explicit}, nil
		}
		return nil, fmt.Errorf("log file not found: %s", explicit)
	}

	var paths []string
	var checked []string

	switch source {
	case LogSourceGo:
		goPath := DefaultLogPath()
		checked = append(checked, goPath)
		if _, err := os.Stat(goPath); err == nil {
			paths = append(paths, goPath)
		}

	case LogSourceOllama:
		ollamaPath := OllamaLogPath()
		checked = append(checked, ollamaPath)
		if _, err := os.Stat(ollamaPath); err == nil {
			paths = append(paths, ollamaPath)
		}

	case LogSourceAll:
		goPath := DefaultLogPath()
		ollamaPath := OllamaLogPath()
		checked = append(checked, goPath, ollamaPath)

		if _, err := os.Stat(goPath); err == nil {
			paths = append(paths, goPath)
		}
		if _, err := os.Stat(ollamaPath); err == nil {
			paths = append(paths, ollamaPath)
		}

	default:
		return nil, fmt.Errorf("unknown log source: %s (use: go, ollama, all)", source)
	}

	if len(paths) == 0 {
		hint := getLogHint(source)
		return nil, fmt.Errorf("no log files found for source '%s'.\nChecked: %v\n\n%s", source, checked, hint)
	}

	return paths, nil
}

// ParseLogSource parses a string into a LogSource.
func ParseLogSource(s string) LogSource {
	switch s {
	case "ollama":
		return LogSourceOllama
	case "all":
		return LogSourceAll
	default:
		return LogSourceGo
	}
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	dir := DefaultLogDir()
	return os.MkdirAll(dir, 0o755)
}

// getLogHint returns a helpful message on how to generate logs for the given source.
func getLogHint(source LogSource) string {
	switch source {
	case LogSourceGo:
		return "To generate deepseeker logs:\n  deepseeker --debug index <dir>"
	case LogSourceOllama:
		return "To generate Ollama logs:\n  ollama serve"
	case LogSourceAll:
		return "To generate logs:\n  deepseeker: deepseeker --debug index <dir>\n  Ollama:     ollama serve"
	default:
		return ""
	}
}
