package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// AvatarColors is the palette a colour is drawn from when a student joins.
var AvatarColors = []string{
	"#FF7043", "#FFA726", "#FFCA28", "#FFEE58",
	"#9CCC65", "#66BB6A", "#26A69A", "#26C6DA",
	"#29B6F6", "#42A5F5", "#5C6BC0", "#7E57C2",
	"#AB47BC", "#EC407A", "#EF5350",
	"#8D6E63", "#78909C", "#A8CFF5",
}

// DefaultAvatarColor is shown before a colour has been chosen.
const DefaultAvatarColor = "#A8CFF5"

type ColorOption struct {
	Name  string
	Value string
}

// ColorOptions backs the avatar colour editor.
var ColorOptions = []ColorOption{
	{"light-blue", "#A8CFF5"},
	{"medium-blue", "#55ACE7"},
	{"blue", "#4085B4"},
	{"dark-blue", "#2D6083"},
	{"navy", "#1A3E55"},
	{"midnight", "#091E2C"},
	{"aqua", "#7FDBCA"},
	{"light-green", "#A8F5CF"},
	{"green", "#55E78A"},
	{"dark-green", "#2D8360"},
	{"light-pink", "#F5A8CF"},
	{"pink", "#E755AC"},
	{"red", "#E75555"},
	{"dark-red", "#832D2D"},
	{"light-yellow", "#F5EFA8"},
	{"yellow", "#E7D155"},
	{"light-orange", "#F5C3A8"},
	{"orange", "#E78A55"},
	{"lilac", "#CFA8F5"},
	{"purple", "#8A55E7"},
	{"white", "#FFFFFF"},
	{"light-gray", "#E0E0E0"},
	{"gray", "#A0A0A0"},
	{"black", "#303030"},
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// PickAvatarColor draws a random colour from AvatarColors.
func PickAvatarColor() (string, error) {
	idx, err := RandomIndex(len(AvatarColors))
	if err != nil {
		return "", err
	}
	return AvatarColors[idx], nil
}

// ResolveColor accepts either a ColorOptions name or a #RRGGBB value.
func ResolveColor(v string) (string, error) {
	v = strings.TrimSpace(v)
	for _, opt := range ColorOptions {
		if strings.EqualFold(opt.Name, v) {
			return opt.Value, nil
		}
	}
	if hexColor.MatchString(v) {
		return strings.ToUpper(v), nil
	}
	return "", fmt.Errorf("unknown avatar colour %q", v)
}
