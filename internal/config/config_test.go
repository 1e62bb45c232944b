package config

import (
	"strings"
	"testing"
)

const sample = `
# comment
[GLOBAL]
LISTEN_PORT=5301
SQL_TIMEOUT=2
SQL_TIMEOUT_BLOCKTIME=30
TG_FOR_V1_CLIENTS=1
RANDOM_QSY_RANGE=1000:3
HTTP_SRV_PORT=8080

[N0CALL]
AUTH_KEY=supersecret

[N1TST]
AUTH_KEY=othersecret
`

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.ListenPort != 5301 {
		t.Errorf("ListenPort = %d, want 5301", cfg.ListenPort)
	}
	if cfg.SQLTimeoutSec != 2 || cfg.SQLTimeoutBlockSec != 30 {
		t.Errorf("squelch timeouts wrong: %+v", cfg)
	}
	if cfg.RandomQSYLo != 1000 || cfg.RandomQSYHi != 1002 {
		t.Errorf("qsy range = [%d,%d], want [1000,1002]", cfg.RandomQSYLo, cfg.RandomQSYHi)
	}
	if !cfg.HTTPSrvEnabled || cfg.HTTPSrvPort != 8080 {
		t.Errorf("http server config wrong: %+v", cfg)
	}
	if cfg.AuthKeys["N0CALL"] != "supersecret" || cfg.AuthKeys["N1TST"] != "othersecret" {
		t.Errorf("auth keys wrong: %+v", cfg.AuthKeys)
	}
}

func TestDefaultsWhenUnset(t *testing.T) {
	cfg, err := Parse(strings.NewReader("[GLOBAL]\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.ListenPort != 5300 || cfg.TGForV1Clients != 1 || cfg.SQLTimeoutBlockSec != 60 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RandomQSYEnabled() {
		t.Errorf("expected random QSY disabled by default")
	}
}

func TestIllegalRandomQSYRangeDisablesPool(t *testing.T) {
	cfg, err := Parse(strings.NewReader("[GLOBAL]\nRANDOM_QSY_RANGE=0:0\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.RandomQSYEnabled() {
		t.Errorf("expected pool disabled for illegal range")
	}
}

func TestMissingEqualsIsError(t *testing.T) {
	_, err := Parse(strings.NewReader("[GLOBAL]\nNOT_A_KV_LINE\n"))
	if err == nil {
		t.Fatal("expected an error for malformed line")
	}
}
