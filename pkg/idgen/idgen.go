package idgen

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/sonyflake"
)

// IDGenerator is the interface for generating unique IDs
type IDGenerator interface {
	NextID() (string, error)
}

// SonyflakeGenerator implements IDGenerator using sonyflake
type SonyflakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewSonyflakeGenerator creates a new SonyflakeGenerator.
// Every client process picks its own machine id, so callers usually pass a value derived from a random source.
func NewSonyflakeGenerator(machineID uint16) (*SonyflakeGenerator, error) {
	st := sonyflake.Settings{
		StartTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		MachineID: func() (uint16, error) {
			return machineID, nil
		},
	}

	sf, err := sonyflake.New(st)
	if err != nil {
		return nil, fmt.Errorf("failed to create sonyflake: %w", err)
	}

	return &SonyflakeGenerator{sf: sf}, nil
}

// NextID generates a new unique ID
func (g *SonyflakeGenerator) NextID() (string, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return strconv.FormatUint(id, 10), nil
}

// UUIDGenerator implements IDGenerator using random UUIDs
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NextID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}
	return id.String(), nil
}

var (
	defaultGenerator IDGenerator
	once             sync.Once
	initErr          error
	mu               sync.RWMutex
)

// SetDefaultGenerator sets the default ID generator
func SetDefaultGenerator(gen IDGenerator) {
	mu.Lock()
	defer mu.Unlock()
	defaultGenerator = gen
}

// GetDefaultGenerator returns the default ID generator.
// If none was set, a SonyflakeGenerator with a machine id taken from a random uuid is created.
func GetDefaultGenerator() (IDGenerator, error) {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if defaultGenerator == nil {
			u := uuid.New()
			machineID := uint16(u[0])<<8 | uint16(u[1])
			defaultGenerator, initErr = NewSonyflakeGenerator(machineID)
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	mu.RLock()
	defer mu.RUnlock()
	return defaultGenerator, nil
}

// OperationId returns a fresh id for an outbound frame.
// It falls back to a uuid when the default generator cannot produce one.
func OperationId() string {
	gen, err := GetDefaultGenerator()
	if err == nil {
		if id, err := gen.NextID(); err == nil {
			return id
		}
	}
	return uuid.NewString()
}
