package station

import (
	"errors"
	"fmt"
	"time"
)

// Station Modbus register map (input registers).
// Note: Modbus address = Register number - 1

const (
	RegBase = 2999 // 3000, first register of the station block

	// Current conditions
	RegTemperature = RegBase + 0 // 3000, S16, °C
	RegFeelsLike   = RegBase + 1 // 3001, S16, °C
	RegHumidity    = RegBase + 2 // 3002, U16, %
	RegWindSpeed   = RegBase + 3 // 3003, U16, km/h
	RegUVIndex     = RegBase + 4 // 3004, U16
	RegVisibility  = RegBase + 5 // 3005, U16, km
	RegPressure    = RegBase + 6 // 3006, U16, hPa
	RegCondition   = RegBase + 7 // 3007, U16, condition code
	RegGeneratedAt = RegBase + 8 // 3008-3009, U32, unix seconds

	// Forecast: five triples of high (S16), low (S16), condition code (U16)
	RegForecast = RegBase + 10 // 3010-3024

	forecastStride = 3

	// BlockSize is the number of registers in the station block.
	BlockSize = RegForecast - RegBase + ForecastDays*forecastStride
)

// ErrShortBlock is returned when a register block is smaller than BlockSize.
var ErrShortBlock = errors.New("register block too short")

// Reading is a snapshot decoded from the register block.
type Reading struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Current     CurrentConditions `json:"current"`
	Forecast    []ForecastDay     `json:"forecast"`
}

// EncodeRegisters lays s out as the station block starting at RegBase.
func EncodeRegisters(s *Snapshot) []uint16 {
	regs := make([]uint16, BlockSize)
	if s == nil {
		return regs
	}

	c := s.Current
	regs[RegTemperature-RegBase] = uint16(int16(c.Temp))
	regs[RegFeelsLike-RegBase] = uint16(int16(c.FeelsLike))
	regs[RegHumidity-RegBase] = uint16(c.Humidity)
	regs[RegWindSpeed-RegBase] = uint16(c.WindSpeed)
	regs[RegUVIndex-RegBase] = uint16(c.UVIndex)
	regs[RegVisibility-RegBase] = uint16(c.Visibility)
	regs[RegPressure-RegBase] = uint16(c.Pressure)
	regs[RegCondition-RegBase] = c.Condition.Code()

	// Little-endian: low word first, high word second
	ts := uint32(s.GeneratedAt.Unix())
	regs[RegGeneratedAt-RegBase] = uint16(ts & 0xFFFF)
	regs[RegGeneratedAt-RegBase+1] = uint16(ts >> 16)

	for i, day := range s.Forecast {
		if i >= ForecastDays {
			break
		}
		off := RegForecast - RegBase + i*forecastStride
		regs[off] = uint16(int16(day.High))
		regs[off+1] = uint16(int16(day.Low))
		regs[off+2] = day.Condition.Code()
	}

	return regs
}

// DecodeRegisters reads a station block produced by EncodeRegisters.
func DecodeRegisters(regs []uint16) (*Reading, error) {
	if len(regs) < BlockSize {
		return nil, fmt.Errorf("%w: got %d registers, want %d", ErrShortBlock, len(regs), BlockSize)
	}

	ts := uint32(regs[RegGeneratedAt-RegBase]) | uint32(regs[RegGeneratedAt-RegBase+1])<<16

	r := &Reading{
		GeneratedAt: time.Unix(int64(ts), 0).UTC(),
		Current: CurrentConditions{
			Temp:       int(int16(regs[RegTemperature-RegBase])),
			FeelsLike:  int(int16(regs[RegFeelsLike-RegBase])),
			Humidity:   int(regs[RegHumidity-RegBase]),
			WindSpeed:  int(regs[RegWindSpeed-RegBase]),
			UVIndex:    int(regs[RegUVIndex-RegBase]),
			Visibility: int(regs[RegVisibility-RegBase]),
			Pressure:   int(regs[RegPressure-RegBase]),
			Condition:  ConditionFromCode(regs[RegCondition-RegBase]),
		},
		Forecast: make([]ForecastDay, 0, ForecastDays),
	}

	for i, label := range ForecastLabels() {
		off := RegForecast - RegBase + i*forecastStride
		r.Forecast = append(r.Forecast, ForecastDay{
			Day:       label,
			High:      int(int16(regs[off])),
			Low:       int(int16(regs[off+1])),
			Condition: ConditionFromCode(regs[off+2]),
		})
	}

	return r, nil
}
