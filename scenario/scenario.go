// Package scenario loads and runs scripted sequences of subscription
// requests against a manager backed by an in-memory transport and a manual
// clock.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/delaneyj/subsmanager/codec"
	"github.com/delaneyj/subsmanager/subs"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScenario = errors.New("invalid scenario")

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Config      subs.Config `yaml:"config"`
	// open subscriptions ready immediately instead of waiting for a ready step
	AutoReady bool   `yaml:"auto_ready"`
	Steps     []Step `yaml:"steps"`
}

// Step carries exactly one action.
type Step struct {
	Subscribe *Sub    `yaml:"subscribe,omitempty"`
	Ready     *Sub    `yaml:"ready,omitempty"`
	Advance   string  `yaml:"advance,omitempty"`
	Reset     bool    `yaml:"reset,omitempty"`
	Expect    *Expect `yaml:"expect,omitempty"`
}

type Sub struct {
	Name string `yaml:"name"`
	Args []any  `yaml:"args,omitempty"`
}

func (s Sub) Request() (codec.Request, error) {
	return codec.NewRequest(s.Name, s.Args...)
}

// Expect checks the manager state. Cached lists the expected entries oldest
// first; nil skips the check.
type Expect struct {
	Cached []Sub `yaml:"cached,omitempty"`
	Ready  *bool `yaml:"ready,omitempty"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario, rejecting unknown fields. Config fields left out
// keep their defaults.
func Parse(data []byte) (*Scenario, error) {
	sc := Scenario{Config: subs.DefaultConfig()}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidScenario)
	}
	if err := sc.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	for i, st := range sc.Steps {
		if err := st.validate(); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrInvalidScenario, i+1, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	actions := 0
	if st.Subscribe != nil {
		actions++
		if _, err := st.Subscribe.Request(); err != nil {
			return err
		}
	}
	if st.Ready != nil {
		actions++
		if _, err := st.Ready.Request(); err != nil {
			return err
		}
	}
	if st.Advance != "" {
		actions++
		d, err := time.ParseDuration(st.Advance)
		if err != nil {
			return err
		}
		if d < 0 {
			return fmt.Errorf("advance %s is negative", st.Advance)
		}
	}
	if st.Reset {
		actions++
	}
	if st.Expect != nil {
		actions++
		for _, s := range st.Expect.Cached {
			if _, err := s.Request(); err != nil {
				return err
			}
		}
	}

	if actions != 1 {
		return fmt.Errorf("want exactly one action, got %d", actions)
	}
	return nil
}
