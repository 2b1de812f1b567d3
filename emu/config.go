package emu

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/rvsim/insts"
)

// Config collects the extension enables and feature switches of a hart.
// The zero value enables no extension or feature; DefaultConfig returns
// the reset configuration of the modeled core.
type Config struct {
	// Base ISA width: 32 or 64.
	Xlen uint32 `json:"xlen"`

	// Standard extensions.
	EnableA bool `json:"a"`
	EnableC bool `json:"c"`
	EnableD bool `json:"d"`
	EnableE bool `json:"e"`
	EnableF bool `json:"f"`
	EnableM bool `json:"m"`
	EnableS bool `json:"s"`
	EnableU bool `json:"u"`
	EnableN bool `json:"n"`

	// Bit-manipulation extensions.
	EnableZba bool `json:"zba"`
	EnableZbb bool `json:"zbb"`
	EnableZbc bool `json:"zbc"`
	EnableZbe bool `json:"zbe"`
	EnableZbf bool `json:"zbf"`
	EnableZbm bool `json:"zbm"`
	EnableZbp bool `json:"zbp"`
	EnableZbr bool `json:"zbr"`
	EnableZbs bool `json:"zbs"`
	EnableZbt bool `json:"zbt"`

	// Feature switches.
	EnableTriggers   bool `json:"triggers"`
	EnableCounters   bool `json:"counters"`
	FastInterrupts   bool `json:"fast_interrupts"`
	MisalDataOk      bool `json:"misaligned_data_ok"`
	AbiNames         bool `json:"abi_names"`
	EnableCsrTrace   bool `json:"csr_trace"`
	LoadQueueEnabled bool `json:"load_queue"`

	StoreErrorRollback bool `json:"store_error_rollback"`
	LoadErrorRollback  bool `json:"load_error_rollback"`

	AmoInDccmOnly               bool `json:"amo_in_dccm_only"`
	MisalAtomicCauseAccessFault bool `json:"misal_atomic_access_fault"`

	// Syscall emulation flavor.
	Newlib bool `json:"newlib"`
	Linux  bool `json:"linux"`
}

// LoadConfig reads a Config from a JSON file, starting from the default
// configuration.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the reset configuration: RV64 with M and C,
// misaligned data allowed, counters on.
func DefaultConfig() Config {
	return Config{
		Xlen:                        64,
		EnableC:                     true,
		EnableM:                     true,
		EnableCounters:              true,
		MisalDataOk:                 true,
		EnableCsrTrace:              true,
		MisalAtomicCauseAccessFault: true,
	}
}

// extEnabled reports whether the extension gating an instruction is on.
func (c *Config) extEnabled(ext insts.Extension) bool {
	switch ext {
	case insts.ExtI:
		return true
	case insts.ExtM:
		return c.EnableM
	case insts.ExtA:
		return c.EnableA
	case insts.ExtF:
		return c.EnableF
	case insts.ExtD:
		return c.EnableD
	case insts.ExtC:
		return c.EnableC
	case insts.ExtS:
		return c.EnableS
	case insts.ExtZba:
		return c.EnableZba
	case insts.ExtZbb:
		return c.EnableZbb
	case insts.ExtZbc:
		return c.EnableZbc
	case insts.ExtZbe:
		return c.EnableZbe
	case insts.ExtZbf:
		return c.EnableZbf
	case insts.ExtZbm:
		return c.EnableZbm
	case insts.ExtZbp:
		return c.EnableZbp
	case insts.ExtZbr:
		return c.EnableZbr
	case insts.ExtZbs:
		return c.EnableZbs
	case insts.ExtZbt:
		return c.EnableZbt
	}
	return false
}
