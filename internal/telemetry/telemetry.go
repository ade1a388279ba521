// Package telemetry generates and rewrites the machine/device identifier
// pair stored in the editor's preferences document.
package telemetry

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// The two document fields subject to randomization. Every other field in
// the document must round-trip unchanged.
const (
	MachineIDKey = "telemetry.machineId"
	DeviceIDKey  = "telemetry.devDeviceId"
)

// IdentifierPair is the machine/device identifier tuple.
type IdentifierPair struct {
	MachineID string `json:"machine_id"` // 64 lowercase hex chars
	DeviceID  string `json:"device_id"`  // RFC 4122 version-4 UUID
}

// Generate returns a fresh random pair: 32 cryptographically random bytes
// hex-encoded for the machine id, and a version-4 UUID for the device id.
func Generate() (IdentifierPair, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return IdentifierPair{}, fmt.Errorf("generate machine id: %w", err)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return IdentifierPair{}, fmt.Errorf("generate device id: %w", err)
	}
	return IdentifierPair{
		MachineID: hex.EncodeToString(raw),
		DeviceID:  id.String(),
	}, nil
}

// Valid reports whether the pair is well-formed: the machine id is exactly
// 64 base-16 digits and the device id parses as a UUID with version 4.
func (p IdentifierPair) Valid() bool {
	if len(p.MachineID) != 64 {
		return false
	}
	if _, err := hex.DecodeString(p.MachineID); err != nil {
		return false
	}
	id, err := uuid.Parse(p.DeviceID)
	if err != nil {
		return false
	}
	return id.Version() == 4
}

// ReadCurrent extracts the identifier pair from the document at path.
// A missing file, unparseable document, or absent field all yield nil:
// "no prior identifiers" is not an error.
func ReadCurrent(path string) *IdentifierPair {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	machineID, _ := doc[MachineIDKey].(string)
	deviceID, _ := doc[DeviceIDKey].(string)
	if machineID == "" || deviceID == "" {
		return nil
	}
	return &IdentifierPair{MachineID: machineID, DeviceID: deviceID}
}

// Rewrite replaces exactly the two identifier fields in the document at
// path and writes the whole document back with stable 2-space indentation.
// The new content is fully prepared in memory before the single final
// overwrite, so a failed parse never leaves a half-written file.
func Rewrite(path string, pair IdentifierPair) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	doc[MachineIDKey] = pair.MachineID
	doc[DeviceIDKey] = pair.DeviceID

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	out = append(out, '\n')

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Info is a read-only snapshot of the document, used by status reporting.
type Info struct {
	Exists         bool            `json:"exists"`
	FileSize       int64           `json:"file_size,omitempty"`
	HasIdentifiers bool            `json:"has_identifiers"`
	Current        *IdentifierPair `json:"current,omitempty"`
}

// Inspect reports the current identifier state of the document at path.
func Inspect(path string) Info {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}
	}
	info := Info{Exists: true, FileSize: fi.Size()}
	if current := ReadCurrent(path); current != nil {
		info.HasIdentifiers = true
		info.Current = current
	}
	return info
}
