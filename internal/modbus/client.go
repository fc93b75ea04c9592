package modbus

import (
	"fmt"
	"sync"
	"time"

	"github.com/simonvetter/modbus"

	"weather-dashboard/internal/station"
)

// Client reads the station block from a register bank.
type Client struct {
	client  *modbus.ModbusClient
	mu      sync.Mutex
	addr    string
	unitID  uint8
	timeout time.Duration
}

func NewClient(addr string, unitID uint8, timeout time.Duration) *Client {
	return &Client{
		addr:    addr,
		unitID:  unitID,
		timeout: timeout,
	}
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     "tcp://" + c.addr,
		Timeout: c.timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create modbus client: %w", err)
	}

	if err := client.Open(); err != nil {
		return fmt.Errorf("failed to connect to station at %s: %w", c.addr, err)
	}

	client.SetUnitId(c.unitID)
	c.client = client

	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}

	err := c.client.Close()
	c.client = nil
	return err
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil
}

func (c *Client) ReadInputRegisters(address uint16, quantity uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	regs, err := c.client.ReadRegisters(address, quantity, modbus.INPUT_REGISTER)
	if err != nil {
		return nil, fmt.Errorf("failed to read input registers at %d: %w", address, err)
	}

	return regs, nil
}

// ReadStation reads and decodes the whole station block.
func (c *Client) ReadStation() (*station.Reading, error) {
	regs, err := c.ReadInputRegisters(station.RegBase, station.BlockSize)
	if err != nil {
		return nil, err
	}
	return station.DecodeRegisters(regs)
}
