package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const versionTimeout = 30 * time.Second

// VersionProvider resolves the installed scanner version once and keeps it until the process restarts.
// Failed lookups are not cached.
type VersionProvider struct {
	binary string

	mu      sync.Mutex
	version string
}

func NewVersionProvider(binary string) *VersionProvider {
	if binary == "" {
		binary = DefaultBinary
	}
	return &VersionProvider{binary: binary}
}

func (p *VersionProvider) Version(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.version != "" {
		return p.version, nil
	}

	version, err := p.resolve(ctx)
	if err != nil {
		return "", err
	}
	p.version = version
	return version, nil
}

func (p *VersionProvider) resolve(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, p.binary, "version", "-o", "json").Output() // #nosec G204
	if err != nil {
		return "", fmt.Errorf("could not determine scanner version: %w", err)
	}

	var info struct {
		Application string `json:"application"`
		Version     string `json:"version"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return "", fmt.Errorf("could not parse scanner version: %w", err)
	}
	version := strings.TrimSpace(info.Version)
	if version == "" {
		return "", errors.New("scanner reported an empty version")
	}
	return version, nil
}
