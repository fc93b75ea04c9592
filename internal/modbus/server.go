package modbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/simonvetter/modbus"

	"weather-dashboard/internal/station"
)

// RegisterBank exposes the latest snapshot as the station input-register
// block. It is both a dashboard sink and a modbus request handler.
type RegisterBank struct {
	mu     sync.RWMutex
	regs   []uint16
	logger *slog.Logger
}

func NewRegisterBank(logger *slog.Logger) *RegisterBank {
	if logger == nil {
		logger = slog.Default()
	}
	return &RegisterBank{
		regs:   make([]uint16, station.BlockSize),
		logger: logger,
	}
}

func (b *RegisterBank) Name() string {
	return "modbus"
}

// Record re-encodes the block from snap.
func (b *RegisterBank) Record(ctx context.Context, snap *station.Snapshot) error {
	if snap == nil {
		return nil
	}
	regs := station.EncodeRegisters(snap)

	b.mu.Lock()
	b.regs = regs
	b.mu.Unlock()
	return nil
}

// Registers returns a copy of the current block.
func (b *RegisterBank) Registers() []uint16 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]uint16(nil), b.regs...)
}

func (b *RegisterBank) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	start := int(req.Addr) - station.RegBase
	end := start + int(req.Quantity)
	if req.Quantity == 0 || start < 0 || end > station.BlockSize {
		b.logger.Debug("modbus read out of range", "client", req.ClientAddr, "addr", req.Addr, "quantity", req.Quantity)
		return nil, modbus.ErrIllegalDataAddress
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]uint16(nil), b.regs[start:end]...), nil
}

// The station block is read-only input registers; every other table is absent.

func (b *RegisterBank) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

func (b *RegisterBank) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

func (b *RegisterBank) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	return nil, modbus.ErrIllegalFunction
}

// Server serves a RegisterBank over Modbus TCP.
type Server struct {
	server *modbus.ModbusServer
	listen string
	logger *slog.Logger
}

func NewServer(listen string, timeout time.Duration, bank *RegisterBank, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	server, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        "tcp://" + listen,
		Timeout:    timeout,
		MaxClients: 16,
	}, bank)
	if err != nil {
		return nil, fmt.Errorf("failed to create modbus server: %w", err)
	}

	return &Server{server: server, listen: listen, logger: logger}, nil
}

func (s *Server) Start() error {
	if err := s.server.Start(); err != nil {
		return fmt.Errorf("failed to start modbus server on %s: %w", s.listen, err)
	}
	s.logger.Info("modbus server listening", "addr", s.listen,
		"first_register", station.RegBase+1, "registers", station.BlockSize)
	return nil
}

func (s *Server) Stop() error {
	return s.server.Stop()
}
