// Package config loads the reflector's INI-style configuration file: a
// GLOBAL section of scalar keys plus one section per callsign holding that
// callsign's AUTH_KEY. The loader itself is treated as an external
// collaborator per the specification; only its external shape (the recognized
// key table) is load-bearing, so this implementation stays intentionally
// small, with github.com/pkg/errors as its only non-stdlib import, the way
// the teacher's own config structs
// (Validate()/GetName()) stay plain Go next to a richer decode layer.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Config holds every recognized GLOBAL key plus the per-callsign auth keys.
type Config struct {
	ListenPort         uint16
	SQLTimeoutSec      uint32
	SQLTimeoutBlockSec uint32
	TGForV1Clients     uint32
	RandomQSYLo        uint32
	RandomQSYHi        uint32
	HTTPSrvPort        uint16
	HTTPSrvEnabled     bool
	MaxClients         int
	LogLevel           string
	AuthKeys           map[string]string // callsign -> shared secret
}

// Default returns the configuration with every spec-mandated default applied.
func Default() *Config {
	return &Config{
		ListenPort:         5300,
		SQLTimeoutSec:      0,
		SQLTimeoutBlockSec: 60,
		TGForV1Clients:     1,
		MaxClients:         0,
		LogLevel:           "info",
		AuthKeys:           map[string]string{},
	}
}

// RandomQSYEnabled reports whether the random-TG pool is usable (§3 QSY pool
// invariant: lo >= 1, hi >= lo, or disabled with lo == hi == 0).
func (c *Config) RandomQSYEnabled() bool {
	return c.RandomQSYLo >= 1 && c.RandomQSYHi >= c.RandomQSYLo
}

// Load parses an INI-style config file from path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening config file %q", path)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the `[SECTION]` / `KEY=VALUE` format described in SPEC_FULL.md
// §4.9: `#`/`;` start comments, blank lines are ignored, GLOBAL holds the
// scalar keys, any other section name is a callsign whose AUTH_KEY is its
// shared secret.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	section := "GLOBAL"

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			return nil, fmt.Errorf("config line %d: missing '=': %q", lineNo, line)
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])

		if err := cfg.apply(section, key, val); err != nil {
			return nil, errors.Wrapf(err, "config line %d", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	if err := cfg.validateRandomQSYRange(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) apply(section, key, val string) error {
	if section != "GLOBAL" {
		if strings.EqualFold(key, "AUTH_KEY") {
			c.AuthKeys[section] = val
		}
		return nil
	}

	switch strings.ToUpper(key) {
	case "LISTEN_PORT":
		n, err := strconv.ParseUint(val, 10, 16)
		if err != nil {
			return errors.Wrap(err, "LISTEN_PORT")
		}
		c.ListenPort = uint16(n)
	case "SQL_TIMEOUT":
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return errors.Wrap(err, "SQL_TIMEOUT")
		}
		c.SQLTimeoutSec = uint32(n)
	case "SQL_TIMEOUT_BLOCKTIME":
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return errors.Wrap(err, "SQL_TIMEOUT_BLOCKTIME")
		}
		c.SQLTimeoutBlockSec = uint32(n)
	case "TG_FOR_V1_CLIENTS":
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return errors.Wrap(err, "TG_FOR_V1_CLIENTS")
		}
		c.TGForV1Clients = uint32(n)
	case "RANDOM_QSY_RANGE":
		lo, hi, err := parseQSYRange(val)
		if err != nil {
			// Per spec.md §6: invalid ranges disable the pool rather than
			// aborting startup.
			return nil
		}
		c.RandomQSYLo, c.RandomQSYHi = lo, hi
	case "HTTP_SRV_PORT":
		n, err := strconv.ParseUint(val, 10, 16)
		if err != nil {
			return errors.Wrap(err, "HTTP_SRV_PORT")
		}
		c.HTTPSrvPort = uint16(n)
		c.HTTPSrvEnabled = true
	case "MAX_CLIENTS":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Wrap(err, "MAX_CLIENTS")
		}
		c.MaxClients = n
	case "LOG_LEVEL":
		c.LogLevel = val
	default:
		// Unknown GLOBAL keys are ignored for forward compatibility, mirroring
		// the codec's tolerance of unknown message types (spec.md §4.1).
	}
	return nil
}

// parseQSYRange parses the "lo:count" form from spec.md §6 into an inclusive
// [lo, lo+count-1] range.
func parseQSYRange(val string) (lo, hi uint32, err error) {
	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("RANDOM_QSY_RANGE must be lo:count, got %q", val)
	}
	loN, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	count, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, fmt.Errorf("RANDOM_QSY_RANGE count must be positive")
	}
	return uint32(loN), uint32(loN + count - 1), nil
}

func (c *Config) validateRandomQSYRange() error {
	if c.RandomQSYLo == 0 && c.RandomQSYHi == 0 {
		return nil // disabled
	}
	if c.RandomQSYLo < 1 || c.RandomQSYHi < c.RandomQSYLo {
		// Illegal range: disable the pool rather than fail startup, per
		// the original reflector's behavior (a warning, not a fatal error).
		c.RandomQSYLo, c.RandomQSYHi = 0, 0
	}
	return nil
}
