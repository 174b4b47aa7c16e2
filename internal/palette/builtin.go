package palette

func at(f float64) *float64 { return &f }

var builtins = map[string]Definition{
	"black hot": {
		Name: "Black hot",
		Type: Relative,
		Steps: []Step{
			{Value: at(0), Color: "#F5F5F5"},
			{Value: at(1), Color: "#242124"},
		},
	},
	"carbon dioxide": {
		Name: "CO₂",
		Type: Absolute,
		Steps: []Step{
			{Value: at(520), Color: "#6d9b17"},
			{Value: at(1000), Color: "#FFBF00"},
			{Value: at(1400), Color: "#cf0000"},
			{Value: at(3000), Color: "#5b0f8c"},
		},
	},
	"indoor temperature": {
		Name: "Indoor temperature",
		Type: Absolute,
		Unit: Celsius,
		Steps: []Step{
			{Value: at(12), Color: "#0f3489", Legend: "Freezing"},
			{Value: at(16), Color: "#595ea3", Legend: "Very low"},
			{Value: at(18), Color: "#7374b0"},
			{Value: at(20), Color: "#F5F5F5"},
			{Value: at(22), Color: "#F5F5F5"},
			{Value: at(24), Color: "#ea755a", Legend: "High"},
			{Value: at(28), Color: "#cf0000", Legend: "Very high"},
		},
	},
	"iron red": {
		Name: "Iron red",
		Type: Relative,
		Steps: []Step{
			{Value: at(0), Color: "#230382"},
			{Value: at(0.1), Color: "#921C96"},
			{Value: at(0.25), Color: "#C93F55"},
			{Value: at(0.4), Color: "#DF6D2D"},
			{Value: at(0.6), Color: "#EFB03D"},
			{Value: at(0.75), Color: "#F9DE52"},
			{Value: at(1), Color: "#F5F5D4"},
		},
	},
	"stoplight": {
		Name: "Stoplight",
		Type: Relative,
		Steps: []Step{
			{Value: at(0), Color: "#6d9b17"},
			{Value: at(0.5), Color: "#fde74c"},
			{Value: at(1), Color: "#cf0000"},
		},
	},
	"white hot": {
		Name: "White hot",
		Type: Relative,
		Steps: []Step{
			{Value: at(0), Color: "#242124"},
			{Value: at(1), Color: "#F5F5F5"},
		},
	},
}
