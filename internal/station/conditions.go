package station

// Condition is one of the six sky labels the station can report.
type Condition string

const (
	Sunny        Condition = "Sunny"
	PartlyCloudy Condition = "Partly Cloudy"
	Cloudy       Condition = "Cloudy"
	LightRain    Condition = "Light Rain"
	Thunderstorm Condition = "Thunderstorm"
	Humid        Condition = "Humid"
)

// Conditions lists every label in draw order.
var Conditions = []Condition{Sunny, PartlyCloudy, Cloudy, LightRain, Thunderstorm, Humid}

type conditionStyle struct {
	icon     string
	gradient string
	code     uint16
}

var conditionStyles = map[Condition]conditionStyle{
	Sunny: {
		icon:     "☀",
		gradient: "linear-gradient(135deg, rgba(245,158,11,0.20), rgba(251,146,60,0.10), rgba(244,63,94,0.20))",
		code:     1,
	},
	PartlyCloudy: {
		icon:     "⛅",
		gradient: "linear-gradient(135deg, rgba(56,189,248,0.20), rgba(148,163,184,0.10), rgba(99,102,241,0.20))",
		code:     2,
	},
	Cloudy: {
		icon:     "☁",
		gradient: "linear-gradient(135deg, rgba(100,116,139,0.30), rgba(156,163,175,0.20), rgba(113,113,122,0.30))",
		code:     3,
	},
	LightRain: {
		icon:     "🌧",
		gradient: "linear-gradient(135deg, rgba(37,99,235,0.30), rgba(34,211,238,0.20), rgba(20,184,166,0.20))",
		code:     4,
	},
	Thunderstorm: {
		icon:     "⛈",
		gradient: "linear-gradient(135deg, rgba(124,58,237,0.30), rgba(168,85,247,0.20), rgba(79,70,229,0.30))",
		code:     5,
	},
	Humid: {
		icon:     "💧",
		gradient: "linear-gradient(135deg, rgba(20,184,166,0.20), rgba(52,211,153,0.10), rgba(6,182,212,0.20))",
		code:     6,
	},
}

func (c Condition) style() conditionStyle {
	if s, ok := conditionStyles[c]; ok {
		return s
	}
	return conditionStyles[Sunny]
}

// Icon returns the display glyph for c. Unknown labels get the Sunny glyph.
func (c Condition) Icon() string {
	return c.style().icon
}

// Gradient returns the CSS backdrop for c. Unknown labels get the Sunny gradient.
func (c Condition) Gradient() string {
	return c.style().gradient
}

// Valid reports whether c is one of Conditions.
func (c Condition) Valid() bool {
	_, ok := conditionStyles[c]
	return ok
}

// Code is the register value for c; 0 means unknown.
func (c Condition) Code() uint16 {
	if s, ok := conditionStyles[c]; ok {
		return s.code
	}
	return 0
}

// ConditionFromCode is the inverse of Code. Unknown codes map to "".
func ConditionFromCode(code uint16) Condition {
	for c, s := range conditionStyles {
		if s.code == code {
			return c
		}
	}
	return ""
}
