package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings is the trading-profile file: one entry per configured bot run.
type Settings struct {
	RayID    string    `json:"rayId"`
	Comment  string    `json:"_comment"`
	Profiles []Profile `json:"profiles"`
}

// Profile names one configured strategy run.
type Profile struct {
	Name  string `json:"name"`
	Param Param  `json:"param"`
}

// Param is a profile's trading parameters. Account names an entry in the
// accounts file; its credentials are resolved separately.
type Param struct {
	Account   string   `json:"account"`
	Breaker   bool     `json:"breaker"`
	Symbols   []string `json:"symbols"`
	Timeframe int      `json:"timeframe"` // minutes
	Volume    float64  `json:"volume"`
	RateTP    float64  `json:"rate_tp"`
	RateSL    float64  `json:"rate_sl"`
	Indicator string   `json:"indicator"`
	IndPreset string   `json:"ind_preset"`
}

// Account holds one account's credentials from the accounts file. Mode is
// "demo" or "real".
type Account struct {
	Pass string `json:"pass"`
	Mode string `json:"mode"`
}

// LoadSettings reads and validates the settings file. Schema violations are
// configuration errors and fail the load.
func LoadSettings(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("config: parse settings: %w", err)
	}
	for i := range s.Profiles {
		p := &s.Profiles[i]
		if p.Name == "" {
			return nil, fmt.Errorf("config: profile %d has no name", i)
		}
		if p.Param.Timeframe <= 0 {
			return nil, fmt.Errorf("config: profile %s: timeframe must be positive", p.Name)
		}
		if p.Param.Volume <= 0 {
			return nil, fmt.Errorf("config: profile %s: volume must be positive", p.Name)
		}
		if len(p.Param.Symbols) == 0 {
			return nil, fmt.Errorf("config: profile %s: no symbols", p.Name)
		}
		if _, ok := Preset(p.Param.IndPreset); !ok {
			return nil, fmt.Errorf("config: profile %s: unknown indicator preset %q", p.Name, p.Param.IndPreset)
		}
	}
	return &s, nil
}

// LoadAccounts reads the account credentials file: a mapping of account
// name to credentials.
func LoadAccounts(path string) (map[string]Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read accounts: %w", err)
	}
	var accounts map[string]Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("config: parse accounts: %w", err)
	}
	return accounts, nil
}
