package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var Values Config

type (
	Config struct {
		Network         string             `mapstructure:"network"`
		DeploymentsDir  string             `mapstructure:"deployments-dir"`
		ManifestSection string             `mapstructure:"manifest-section"`
		LogLevel        string             `mapstructure:"log-level"`
		Output          string             `mapstructure:"output"`
		WaitTimeout     time.Duration      `mapstructure:"wait-timeout"`
		PollInterval    time.Duration      `mapstructure:"poll-interval"`
		GasLimit        uint64             `mapstructure:"gas-limit"`
		Batch           Batch              `mapstructure:"batch"`
		Networks        map[string]Network `mapstructure:"networks"`
	}

	Batch struct {
		Size        int `mapstructure:"size"`
		Concurrency int `mapstructure:"concurrency"`
	}

	Network struct {
		ChainID         uint64 `mapstructure:"chain-id"`
		RPCURL          string `mapstructure:"rpc-url"`
		PrivateKey      string `mapstructure:"private-key"`
		Mnemonic        string `mapstructure:"mnemonic"`
		DerivationIndex uint32 `mapstructure:"derivation-index"`
	}

	// ChainProfile is the resolved configuration of the selected network.
	ChainProfile struct {
		Name            string
		ChainID         uint64
		RPCURL          string
		PrivateKey      string
		Mnemonic        string
		DerivationIndex uint32
	}
)

func (c *Config) Validate() error {
	var errs []error

	if c.Network == "" {
		errs = append(errs, errors.New("network is required"))
	}
	if c.DeploymentsDir == "" {
		errs = append(errs, errors.New("deployments-dir is required"))
	}
	if c.WaitTimeout <= 0 {
		errs = append(errs, errors.New("wait-timeout must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll-interval must be positive"))
	}
	if c.Batch.Size <= 0 {
		errs = append(errs, errors.New("batch.size must be positive"))
	}
	if c.Batch.Concurrency <= 0 {
		errs = append(errs, errors.New("batch.concurrency must be positive"))
	}
	for name, network := range c.Networks {
		if network.ChainID == 0 {
			errs = append(errs, fmt.Errorf("networks.%s.chain-id is required", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

// Profile resolves the named network, applying environment overrides.
func (c *Config) Profile(name string) (ChainProfile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	network, ok := c.Networks[name]
	if !ok {
		return ChainProfile{}, fmt.Errorf("unknown network '%s'", name)
	}

	profile := ChainProfile{
		Name:            name,
		ChainID:         network.ChainID,
		RPCURL:          envOr(name, "RPC_URL", network.RPCURL),
		PrivateKey:      envOr(name, "PRIVATEKEY", network.PrivateKey),
		Mnemonic:        envOr(name, "MNEMONIC", network.Mnemonic),
		DerivationIndex: network.DerivationIndex,
	}

	if err := profile.Validate(); err != nil {
		return ChainProfile{}, err
	}

	return profile, nil
}

func (p *ChainProfile) Validate() error {
	var errs []error

	if p.ChainID == 0 {
		errs = append(errs, fmt.Errorf("networks.%s.chain-id is required", p.Name))
	}
	if p.RPCURL == "" {
		errs = append(errs, fmt.Errorf("networks.%s.rpc-url or %s is required", p.Name, EnvKey(p.Name, "RPC_URL")))
	}
	if p.PrivateKey == "" && p.Mnemonic == "" {
		errs = append(errs, fmt.Errorf("networks.%s.private-key, networks.%s.mnemonic, %s or %s is required",
			p.Name, p.Name, EnvKey(p.Name, "PRIVATEKEY"), EnvKey(p.Name, "MNEMONIC")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("network '%s' validation failed: %w", p.Name, errors.Join(errs...))
	}

	return nil
}

// EnvKey returns the environment variable overriding suffix for network.
func EnvKey(network, suffix string) string {
	return strings.ToUpper(strings.ReplaceAll(network, "-", "_")) + "_" + suffix
}

func envOr(network, suffix, fallback string) string {
	if v, ok := os.LookupEnv(EnvKey(network, suffix)); ok && v != "" {
		return v
	}
	return fallback
}
