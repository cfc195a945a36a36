package action

import (
	"fmt"
	"strconv"
	"time"

	"github.com/sethvargo/go-githubactions"

	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/release"
	"github.com/ZebulonRouseFrantzich/dep-tree-action/internal/runner"
)

// Input names as declared in action.yml.
const (
	InputEntrypoints    = "entrypoints"
	InputConfig         = "config"
	InputVersion        = "version"
	InputNamingScheme   = "naming-scheme"
	InputInstallDir     = "install-dir"
	InputVerifyChecksum = "verify-checksum"
	InputPublicKey      = "public-key"
	InputTimeout        = "timeout"
)

// Inputs holds every action input. Empty strings mean "not supplied".
type Inputs struct {
	Entrypoints    string
	Config         string
	Version        string
	NamingScheme   string
	InstallDir     string
	VerifyChecksum string
	PublicKey      string
	Timeout        string
}

// ReadInputs looks up every input through gha.
func ReadInputs(gha *githubactions.Action) Inputs {
	return Inputs{
		Entrypoints:    gha.GetInput(InputEntrypoints),
		Config:         gha.GetInput(InputConfig),
		Version:        gha.GetInput(InputVersion),
		NamingScheme:   gha.GetInput(InputNamingScheme),
		InstallDir:     gha.GetInput(InputInstallDir),
		VerifyChecksum: gha.GetInput(InputVerifyChecksum),
		PublicKey:      gha.GetInput(InputPublicKey),
		Timeout:        gha.GetInput(InputTimeout),
	}
}

// Settings are the validated, typed form of Inputs.
type Settings struct {
	Run            runner.Config
	Version        string
	Scheme         release.Scheme
	InstallDir     string
	VerifyChecksum bool
	PublicKey      string
}

// Parse validates the inputs. Scheme is empty when no naming-scheme was
// supplied, leaving the manifest default in place.
func (in Inputs) Parse() (Settings, error) {
	s := Settings{
		Run: runner.Config{
			Entrypoints: in.Entrypoints,
			ConfigPath:  in.Config,
		},
		Version:    in.Version,
		InstallDir: in.InstallDir,
		PublicKey:  in.PublicKey,
	}

	if in.NamingScheme != "" {
		scheme, err := release.ParseScheme(in.NamingScheme)
		if err != nil {
			return Settings{}, fmt.Errorf("input %s: %w", InputNamingScheme, err)
		}
		s.Scheme = scheme
	}

	if in.VerifyChecksum != "" {
		v, err := strconv.ParseBool(in.VerifyChecksum)
		if err != nil {
			return Settings{}, fmt.Errorf("input %s: %q is not a boolean", InputVerifyChecksum, in.VerifyChecksum)
		}
		s.VerifyChecksum = v
	}

	if in.Timeout != "" {
		d, err := time.ParseDuration(in.Timeout)
		if err != nil {
			return Settings{}, fmt.Errorf("input %s: %w", InputTimeout, err)
		}
		if d < 0 {
			return Settings{}, fmt.Errorf("input %s: must not be negative", InputTimeout)
		}
		s.Run.Timeout = d
	}

	return s, nil
}
