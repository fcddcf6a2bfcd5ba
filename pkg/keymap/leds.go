package keymap

// LED lighting flags.
const (
	FlagModifier  uint8 = 0x01
	FlagUnderglow uint8 = 0x02
	FlagKeylight  uint8 = 0x04
	FlagIndicator uint8 = 0x08
)

// NoLED marks a matrix position without an LED.
const NoLED = 0xFF

// Matrix geometry. Each half is scanned as rows of six columns; the right
// half's rows follow the left half's.
const (
	MatrixRows = 11
	MatrixCols = 6
	NumLEDs    = 60

	// GridWidth and GridHeight bound the LED coordinate space.
	GridWidth  = 224
	GridHeight = 64
)

// LED is one physical LED position used by lighting effects.
type LED struct {
	Index uint8
	Flags uint8
	X, Y  uint8
}

// Matrix maps a matrix position to its LED index or NoLED.
var Matrix = [MatrixRows][MatrixCols]uint8{
	{0, 1, 2, 3, 4, 5},       // row 0 left
	{6, 7, 8, 9, 10, 11},     // row 1 left
	{12, 13, 14, 15, 16, 17}, // row 2 left
	{18, 19, 20, 21, 22, 23}, // row 3 left
	{24, 25, 26, 27, 28, 29}, // row 4 left
	{30, 31, 32, 33, 34, 35}, // row 0 right
	{36, 37, 38, 39, 40, 41}, // row 1 right
	{42, 43, 44, 45, 46, 47}, // row 2 right
	{48, 49, 50, 51, 52, 53}, // row 3 right
	{54, 55, 56, 57, 58, 59}, // row 4 right
	{NoLED, NoLED, NoLED, NoLED, NoLED, NoLED}, // encoder buttons
}

// positions lists (x, y) for every LED index. The left half is controlled by
// the left MCU (0-29); the right half (30-59) runs mirrored.
var positions = [NumLEDs][2]uint8{
	{0, 10}, {16, 10}, {32, 4}, {48, 0}, {64, 4}, {80, 8},
	{0, 20}, {16, 20}, {32, 14}, {48, 15}, {64, 14}, {80, 18},
	{0, 30}, {16, 30}, {32, 24}, {48, 25}, {64, 24}, {80, 28},
	{0, 40}, {16, 40}, {32, 34}, {48, 35}, {64, 34}, {80, 38},
	{0, 50}, {56, 45}, {72, 50}, {96, 64}, {96, 33}, {96, 23},

	{224, 8}, {208, 4}, {192, 0}, {176, 4}, {160, 10}, {144, 10},
	{224, 18}, {208, 14}, {192, 15}, {176, 14}, {160, 20}, {144, 20},
	{224, 28}, {208, 24}, {192, 25}, {176, 24}, {160, 30}, {144, 30},
	{224, 38}, {208, 34}, {192, 35}, {176, 34}, {160, 40}, {144, 40},
	{224, 23}, {168, 33}, {152, 64}, {128, 50}, {128, 45}, {128, 50},
}

// Layout returns all LEDs in index order. Every LED is a key light.
func Layout() []LED {
	leds := make([]LED, NumLEDs)
	for i, p := range positions {
		leds[i] = LED{
			Index: uint8(i),
			Flags: FlagKeylight,
			X:     p[0],
			Y:     p[1],
		}
	}
	return leds
}

// LEDAt returns the LED index at a matrix position.
func LEDAt(row, col int) (int, bool) {
	if row < 0 || row >= MatrixRows || col < 0 || col >= MatrixCols {
		return 0, false
	}
	idx := Matrix[row][col]
	if idx == NoLED {
		return 0, false
	}
	return int(idx), true
}

// IsLeft reports whether LED index i belongs to the left half.
func IsLeft(i int) bool {
	return i < NumLEDs/2
}
