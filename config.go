package main

import (
	"fmt"
	"os"
	"time"

	"github.com/thiefmaster/braviactl/bridge"
	"github.com/thiefmaster/braviactl/comm"
	"github.com/thiefmaster/braviactl/commands"
	"gopkg.in/yaml.v2"
)

const defaultPort = "/dev/ttyUSB0"

type appConfig struct {
	Port             string
	Baud             int
	ReadTimeout      time.Duration `yaml:"readTimeout"`
	SleepTimerValues []int         `yaml:"sleepTimerValues"`
	Bridge           bridge.Config
}

func defaultConfig() appConfig {
	return appConfig{
		Port:             defaultPort,
		Baud:             comm.DefaultBaud,
		ReadTimeout:      comm.DefaultReadTimeout,
		SleepTimerValues: commands.DefaultProfile().SleepTimerValues,
	}
}

// load overlays the YAML file at path onto c. Keys the file leaves out keep
// their current values.
func (c *appConfig) load(path string) error {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not open config file: %v", err)
	}
	if err = yaml.UnmarshalStrict(yamlFile, c); err != nil {
		return fmt.Errorf("could not parse config file: %v", err)
	}
	return c.validate()
}

func (c *appConfig) validate() error {
	if c.Port == "" {
		return fmt.Errorf("config: port must not be empty")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("config: invalid baud rate %d", c.Baud)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("config: invalid read timeout %s", c.ReadTimeout)
	}
	if len(c.SleepTimerValues) == 0 {
		return fmt.Errorf("config: sleepTimerValues must list at least one value")
	}
	for _, v := range c.SleepTimerValues {
		if v < 0 || v > 0xFF {
			return fmt.Errorf("config: sleep timer value %d does not fit in a byte", v)
		}
	}
	return nil
}

func (c *appConfig) portConfig() comm.PortConfig {
	return comm.PortConfig{Name: c.Port, Baud: c.Baud, ReadTimeout: c.ReadTimeout}
}

func (c *appConfig) profile() commands.Profile {
	return commands.Profile{SleepTimerValues: c.SleepTimerValues}
}
